package consolidate

import (
	"time"

	"github.com/google/uuid"
)

// IdentityGenerator supplies the fresh identity of a merge target.
// Implemented by UUIDv7Identity (production) and testutil.FixedIdentity
// (tests).
type IdentityGenerator interface {
	NewID() string
	Now() time.Time
}

// UUIDv7Identity generates time-sortable UUIDv7 entry IDs and reads the
// wall clock.
//
// Thread-safety: UUIDv7Identity is stateless and safe for concurrent use.
type UUIDv7Identity struct{}

// NewID returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Identity) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Now returns the current UTC time.
func (UUIDv7Identity) Now() time.Time {
	return time.Now().UTC()
}
