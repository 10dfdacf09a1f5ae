// Package manifest records which files each stage produced, so downstream stages can read
// an explicit list instead of re-listing directories.
package manifest

import (
	"context"
	"time"
)

// Entry is one stage output.
type Entry struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	Rejected  int       `json:"rejected,omitempty"`
	Inputs    []string  `json:"inputs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists entries.
type Store interface {
	Record(ctx context.Context, e Entry) error
	// List returns the entries of stage, oldest first.
	List(ctx context.Context, stage string) ([]Entry, error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error           { return nil }
func (Nop) List(context.Context, string) ([]Entry, error) { return nil, nil }

var _ Store = Nop{}
