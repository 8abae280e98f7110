package review

import (
	sess "github.com/abhisek/lexiz/internal/session"
)

// begunMsg is sent once the session has been started.
type begunMsg struct {
	Session *sess.Session
	Err     error
}

// promptMsg carries the next card, or ok=false when none are left.
type promptMsg struct {
	Prompt sess.Prompt
	OK     bool
	Err    error
}

// recordedMsg is sent after an outcome has been persisted.
type recordedMsg struct {
	Outcome sess.Outcome
	Err     error
}

// finishedMsg is sent when the session has completed or been aborted.
type finishedMsg struct {
	Summary sess.Summary
	Err     error
}
