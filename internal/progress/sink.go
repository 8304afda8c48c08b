package progress

import "context"

// Sink consumes batches of progress events. Implementations must be safe for
// repeated calls and honor ctx deadlines.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// collector stays agnostic about buffering and persistence.
type Emitter interface {
	Emit(evt Event)
}

// Discard is an Emitter that drops everything, for tests and disabled
// telemetry.
type Discard struct{}

// Emit drops the event.
func (Discard) Emit(Event) {}
