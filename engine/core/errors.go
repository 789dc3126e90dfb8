package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCorruptData       = errors.New("asset contains corrupt data")
	ErrMissingData       = errors.New("asset references data that was not loaded")
	ErrUnsupportedFormat = errors.New("no format registered for asset")
	ErrSnapshotCorrupt   = errors.New("snapshot is corrupt")
)

// NotLoadedError is returned when a key cannot be found in a store, neither
// by exact nor by alias lookup.
type NotLoadedError struct {
	Key string
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("tried to use %s which was not loaded", e.Key)
}

// AmbiguousKeyError is returned when an alias lookup matches more than one
// stored key.
type AmbiguousKeyError struct {
	Key        string
	Candidates []string
}

func (e *AmbiguousKeyError) Error() string {
	return fmt.Sprintf("key %s is ambiguous, matches %s", e.Key, strings.Join(e.Candidates, ", "))
}

// FetchError wraps a disk or network failure for one key.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error while loading %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type URLParseError struct {
	Key string
	Err error
}

func (e *URLParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error while parsing the url %s", e.Key)
	}
	return fmt.Sprintf("error while parsing the url %s: %v", e.Key, e.Err)
}

func (e *URLParseError) Unwrap() error { return e.Err }

type DataURIError struct {
	Key string
	Err error
}

func (e *DataURIError) Error() string {
	return fmt.Sprintf("error while parsing data url %s: %v", truncate(e.Key, 64), e.Err)
}

func (e *DataURIError) Unwrap() error { return e.Err }

// CapabilityError reports that a source kind was requested but the loader
// was built without a fetcher for it.
type CapabilityError struct {
	Feature string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("feature '%s' is not available", e.Feature)
}

// data URIs can be megabytes long
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
