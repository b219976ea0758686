// Package uuid provides UUID v7 generation.
// UUID v7 is sortable by timestamp, which keeps ask and exchange ids in
// arrival order when they show up in logs.
package uuid

import guuid "github.com/google/uuid"

// UUID represents a UUID v7 identifier.
type UUID = guuid.UUID

// NewV7 generates a new UUID v7. It falls back to a random v4 id in the
// unlikely case the v7 generator cannot read randomness.
func NewV7() UUID {
	id, err := guuid.NewV7()
	if err != nil {
		return guuid.New()
	}
	return id
}

// NewString returns a new UUID v7 in its canonical string form.
func NewString() string {
	return NewV7().String()
}
