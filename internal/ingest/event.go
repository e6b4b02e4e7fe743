// Package ingest accepts events raised by an engine running in another
// process and replays them on the local event sources.
package ingest

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/petrijr/rastro/pkg/api"
)

var (
	// ErrInvalidEvent wraps decoding and validation failures.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrNoSource is returned when the event names a source that is not
	// configured.
	ErrNoSource = errors.New("event source not configured")
)

// Event is an event pushed by an out-of-process engine.
//
// Args are delivered as text. When FEI is set it is passed as the first
// argument, wrapped in a work item if Participant is also set.
type Event struct {
	Source      string                `json:"source" msgpack:"source" validate:"required,oneof=expool pmap"`
	Kind        string                `json:"kind" msgpack:"kind" validate:"required"`
	Channel     string                `json:"channel,omitempty" msgpack:"channel,omitempty"`
	FEI         *api.FlowExpressionID `json:"fei,omitempty" msgpack:"fei,omitempty"`
	Participant string                `json:"participant,omitempty" msgpack:"participant,omitempty"`
	Args        []string              `json:"args,omitempty" msgpack:"args,omitempty"`
}

// Arguments returns the observer arguments carried by e.
func (e Event) Arguments() []any {
	args := make([]any, 0, len(e.Args)+1)
	if e.FEI != nil {
		if e.Participant != "" {
			args = append(args, &api.WorkItem{FEI: *e.FEI, Participant: e.Participant})
		} else {
			args = append(args, *e.FEI)
		}
	}
	for _, a := range e.Args {
		args = append(args, a)
	}
	return args
}

// Targets are the hubs events are replayed on. Either may be nil.
type Targets struct {
	Pool     *api.Hub
	Dispatch *api.Hub
}

// Publisher validates events and notifies the matching hub.
type Publisher struct {
	targets  Targets
	validate *validator.Validate
}

// NewPublisher returns a Publisher for targets.
func NewPublisher(targets Targets) *Publisher {
	return &Publisher{
		targets:  targets,
		validate: validator.New(),
	}
}

// Publish validates e and notifies the hub of its source. A channelled
// dispatch event is notified the way the dispatch map raises it: channel
// first, kind as the first argument.
func (p *Publisher) Publish(e Event) error {
	if err := p.validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	kind := api.Kind(e.Kind)
	switch api.Source(e.Source) {
	case api.SourcePool:
		if p.targets.Pool == nil {
			return fmt.Errorf("%w: %s", ErrNoSource, e.Source)
		}
		p.targets.Pool.Notify(kind, e.Arguments()...)
	case api.SourceDispatch:
		if p.targets.Dispatch == nil {
			return fmt.Errorf("%w: %s", ErrNoSource, e.Source)
		}
		if e.Channel != "" {
			p.targets.Dispatch.Notify(e.Channel, append([]any{kind}, e.Arguments()...)...)
		} else {
			p.targets.Dispatch.Notify(kind, e.Arguments()...)
		}
	}
	return nil
}

// EncodeEvent serializes e for the wire.
func EncodeEvent(e Event) ([]byte, error) {
	return msgpack.Marshal(&e)
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return e, nil
}
