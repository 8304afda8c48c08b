package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StageSourceStart Stage = "SOURCE_START"
	StageSourceDone  Stage = "SOURCE_DONE"
	StageRecordOK    Stage = "RECORD_WRITTEN"
	StageRecordSkip  Stage = "RECORD_SKIPPED"
	StageBatchFlush  Stage = "BATCH_FLUSH"
)

// RunID identifies one collection run across every event it emits.
type RunID = uuid.UUID

// Event captures a single milestone of a collection run.
type Event struct {
	// RunID uniquely identifies the collection run this event belongs to.
	RunID RunID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Source scopes source and record events to one adapter (statsapi,
	// savant, rotowire, umpires, draftkings).
	Source string
	// RecordID optionally names the record involved (gamePk, game key).
	RecordID string
	// Records carries the record-count delta for source and batch events.
	Records int64
	// Dur captures execution latency for source completions and runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageSourceStart, StageSourceDone, StageBatchFlush:
		if e.Source == "" {
			return errors.New("source events require a source label")
		}
	case StageRecordOK, StageRecordSkip:
		if e.Source == "" {
			return errors.New("record events require a source label")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// NewRunID allocates a fresh run identifier.
func NewRunID() RunID {
	return uuid.New()
}
