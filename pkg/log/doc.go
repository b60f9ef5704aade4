/*
Package log provides structured logging for Agentdeck using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and support
filtering by severity level.

# Usage

Initialize once at startup, then use the global logger or component children:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: false})

	logger := log.WithComponent("stream")
	logger.Warn().Err(err).Msg("dropping malformed stream payload")

Child helpers exist for the identifiers that recur across the sync layer:
WithWorkflowID, WithQueryKey and WithTopic.

The console format (JSONOutput: false) is intended for interactive CLI use;
daemons and tests that scrape output should prefer JSON.
*/
package log
