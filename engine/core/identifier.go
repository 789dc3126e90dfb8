package core

import "github.com/google/uuid"

// LoadID tags every log line emitted while one Load call is in progress so
// interleaved rounds from concurrent loads can be told apart.
type LoadID string

func NewLoadID() LoadID {
	return LoadID(uuid.NewString())
}

// Short returns the first block of the id, enough for log correlation.
func (id LoadID) Short() string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
