package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// A short unique id used to correlate the lifecycle of a single sink
// instance (create, evict, close) in the logs.
func NewSinkId() string {
	u := uuid.New()
	return hex.EncodeToString(u[0:8])
}
