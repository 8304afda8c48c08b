package pipeline

import "fmt"

// NetworkError is a transient fetch failure surfaced after the retry cap is
// exhausted. It is contained to one fetch; the run continues.
type NetworkError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempts", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempts", e.URL, e.Err, e.Attempts)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedRecordError marks a single record whose identifying fields are
// missing or unparseable. The orchestrator skips and logs it; the batch
// survives.
type MalformedRecordError struct {
	Source string
	ID     string
	Field  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s record %s: field %q: %v", e.Source, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s record %s: missing required field %q", e.Source, e.ID, e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// UnknownEntityError is a join-key resolution failure: a team or player name
// with no canonical mapping. The merge halts for that row rather than guess.
type UnknownEntityError struct {
	Kind string
	Name string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown %s %q: no canonical id mapping", e.Kind, e.Name)
}

// PersistenceError is a disk or database write failure, fatal to the current
// unit of work. Previously committed output is never touched.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
