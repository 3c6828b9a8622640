// Package archive persists session traces after a deliberation reaches a
// terminal state. Stores hold opaque JSON documents keyed by session ID so
// the engine can stay ignorant of the storage layout.
package archive

import "context"

// Record is one archived session trace.
type Record struct {
	ID   string
	Data []byte
}

// Store translates between external storage and archived session records.
// Implementations are stateless and perform I/O on each call.
type Store interface {
	// List returns all archived session IDs.
	List(ctx context.Context) ([]string, error)
	// Load retrieves records for the specified session IDs.
	Load(ctx context.Context, ids ...string) ([]Record, error)
	// Save persists records, creating or overwriting as needed.
	Save(ctx context.Context, records ...Record) error
	// Delete removes records. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...string) error
}
