package publisher

import (
	"context"
	"errors"
)

// Sink is anything that can receive an engine event.
type Sink interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// Fanout delivers each event to every sink. All sinks are attempted even if
// one fails; the errors come back joined.
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a fanout over the given sinks. Nil sinks are dropped.
func NewFanout(sinks ...Sink) *Fanout {
	kept := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &Fanout{sinks: kept}
}

// Publish sends the event to every sink.
func (f *Fanout) Publish(ctx context.Context, event string, payload interface{}) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
