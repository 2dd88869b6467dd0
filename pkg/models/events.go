package models

// Event types written to the event log.
const (
	EventTaskCreated       = "task.created"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskSnoozed       = "task.snoozed"
	EventTaskUnsnoozed     = "task.unsnoozed"
	EventTaskEdited        = "task.edited"
	EventTaskRemoved       = "task.removed"
	EventFocusStarted      = "focus.started"
	EventFocusCompleted    = "focus.completed"
	EventFocusCancelled    = "focus.cancelled"
	EventBreakEnded        = "break.ended"
	EventSessionIdle       = "session.idle"
)
