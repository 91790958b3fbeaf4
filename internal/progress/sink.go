package progress

import "context"

// Sink consumes batches of progress events. Implementations must honor ctx
// deadlines and tolerate repeated Consume calls.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events. Hub satisfies it, as does Nop.
type Emitter interface {
	Emit(evt Event)
}

// Nop is an Emitter that discards everything.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(Event) {}
