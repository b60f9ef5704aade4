package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/types"
)

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(AgentList{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() string { return "tok-abc" })
	_, err := c.ListAgents(context.Background(), types.DefaultPage)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(AgentList{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, func() string { return "" })
	_, err := c.ListAgents(context.Background(), types.DefaultPage)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestStructuredErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Login(context.Background(), "sam", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
	assert.True(t, IsAuthError(err))
}

func TestErrorWithoutDetailFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nginx</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.SystemMetrics(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Detail)
	assert.False(t, IsAuthError(err))
}

func TestNetworkErrorMarked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, nil)
	_, err := c.ListTasks(context.Background(), types.DefaultPage)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, IsAuthError(err))
}

func TestContextTimeoutBoundsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.ListWorkflows(ctx, types.DefaultPage)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPaginationAndSearchQuery(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"limit":  r.URL.Query().Get("limit"),
			"offset": r.URL.Query().Get("offset"),
			"q":      r.URL.Query().Get("q"),
		}
		json.NewEncoder(w).Encode(EmailList{TotalCount: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	resp, err := c.SearchEmails(context.Background(), "invoice", types.Page{Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, map[string]string{"limit": "20", "offset": "40", "q": "invoice"}, gotQuery)
}

func TestUpdateTaskImportance(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(types.Task{ID: "t-9", Important: false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	task, err := c.UpdateTaskImportance(context.Background(), "t-9", false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/tasks/t-9/importance", gotPath)
	assert.Equal(t, map[string]bool{"important": false}, gotBody)
	assert.False(t, task.Important)
}
