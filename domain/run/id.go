package run

import "github.com/google/uuid"

// NewBatchID returns a time-ordered batch identifier. UUID v7 keeps
// batch listings sortable by creation time; v4 is the fallback when
// the system clock cannot support it.
func NewBatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
