// Package observability provides the event log, metrics and alerting for
// feedme. Events are appended as JSON Lines; metrics are derived from the log
// on demand and alerts are evaluated against the current task set.
package observability
