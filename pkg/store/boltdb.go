package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketAuth          = []byte("auth")
	bucketNotifications = []byte("notifications")
	bucketPreferences   = []byte("preferences")
)

// Well-known keys
const (
	KeyAuthToken        = "token"
	KeyNotificationList = "list"
	KeySyncPreferences  = "sync"
)

// ErrNotFound is returned when a key is absent. Absence is a valid, expected
// state; callers fall back to defaults rather than failing.
var ErrNotFound = errors.New("key not found")

// BoltStore is a bbolt-backed local key-value store for the auth token, the
// serialized notification list, and persisted user preferences. All values
// are JSON-encoded. Writes are atomic (one bbolt transaction per mutation).
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the local store under dataDir
func Open(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "agentdeck.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketAuth,
			bucketNotifications,
			bucketPreferences,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// PutAuth stores a JSON-encoded value in the auth bucket
func (s *BoltStore) PutAuth(key string, value any) error {
	return s.put(bucketAuth, key, value)
}

// GetAuth loads a value from the auth bucket. Returns ErrNotFound when absent.
func (s *BoltStore) GetAuth(key string, out any) error {
	return s.get(bucketAuth, key, out)
}

// DeleteAuth removes a key from the auth bucket
func (s *BoltStore) DeleteAuth(key string) error {
	return s.delete(bucketAuth, key)
}

// PutNotifications stores a JSON-encoded value in the notifications bucket
func (s *BoltStore) PutNotifications(key string, value any) error {
	return s.put(bucketNotifications, key, value)
}

// GetNotifications loads a value from the notifications bucket
func (s *BoltStore) GetNotifications(key string, out any) error {
	return s.get(bucketNotifications, key, out)
}

// PutPreferences stores a JSON-encoded value in the preferences bucket
func (s *BoltStore) PutPreferences(key string, value any) error {
	return s.put(bucketPreferences, key, value)
}

// GetPreferences loads a value from the preferences bucket
func (s *BoltStore) GetPreferences(key string, out any) error {
	return s.get(bucketPreferences, key, out)
}

func (s *BoltStore) put(bucket []byte, key string, value any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) get(bucket []byte, key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, out)
	})
}

func (s *BoltStore) delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Delete([]byte(key))
	})
}
