package session

import (
	"time"

	"github.com/abdul-mstfa/projectgen/internal/edits"
)

// EditStatus is the recorded result of one edit.
type EditStatus string

const (
	StatusApplied EditStatus = "applied"
	StatusFailed  EditStatus = "failed"
)

// JournalEntry is one recorded filesystem effect of a chat round. Only
// edits are journaled, never the conversation itself.
type JournalEntry struct {
	ID        string     `json:"id"`         // ULID, sortable by creation time
	SessionID string     `json:"session_id"` // UUID of the chat session
	Root      string     `json:"root"`
	Path      string     `json:"path"`
	Status    EditStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// entryFromOutcome converts an applier outcome into a journal entry.
func entryFromOutcome(sessionID, root string, o edits.Outcome) JournalEntry {
	e := JournalEntry{
		SessionID: sessionID,
		Root:      root,
		Path:      o.Path,
		Status:    StatusApplied,
	}
	if !o.Applied {
		e.Status = StatusFailed
		e.Reason = o.Reason
	}
	return e
}
