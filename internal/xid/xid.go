package xid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns "<prefix>-<uuid>", falling back to a timestamp when the random
// source fails.
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return prefix + "-" + id.String()
}
