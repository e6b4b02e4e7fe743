package api

import "fmt"

// Source identifies which engine component raised an event.
type Source string

const (
	// SourcePool is the expression pool.
	SourcePool Source = "expool"
	// SourceDispatch is the participant dispatch map.
	SourceDispatch Source = "pmap"
)

// Kind is a symbolic event tag. A plain string argument is text, not a Kind.
type Kind string

const (
	KindLaunch     Kind = "launch"
	KindTerminate  Kind = "terminate"
	KindCancel     Kind = "cancel"
	KindError      Kind = "error"
	KindReschedule Kind = "reschedule"
	KindStop       Kind = "stop"
	KindPause      Kind = "pause"
	KindResume     Kind = "resume"

	// Pool kinds that are raised but not kept in history.
	KindApply         Kind = "apply"
	KindReply         Kind = "reply"
	KindLaunchChild   Kind = "launch_child"
	KindLaunchOrphan  Kind = "launch_orphan"
	KindForget        Kind = "forget"
	KindRemove        Kind = "remove"
	KindUpdate        Kind = "update"
	KindReplyToParent Kind = "reply_to_parent"

	// Dispatch map kinds.
	KindDispatch     Kind = "dispatch"
	KindAfterConsume Kind = "after_consume"
)

// RawEvent is an event as delivered by one of the two sources, before
// normalization. It is either a PoolEvent or a DispatchEvent.
type RawEvent interface {
	EventSource() Source
	rawEvent()
}

// PoolEvent is raised by the expression pool.
type PoolEvent struct {
	Kind Kind
	Args []any
}

// DispatchEvent is raised by the dispatch map. When the map multiplexes an
// event over a participant channel, Channel holds the channel name and Kind
// holds the tag that was reported as the first argument.
type DispatchEvent struct {
	Channel any
	Kind    Kind
	Args    []any

	// Symbolic is false when Kind was derived from a non-Kind tag, such as
	// plain text reported on a channel.
	Symbolic bool
}

func (PoolEvent) EventSource() Source     { return SourcePool }
func (DispatchEvent) EventSource() Source { return SourceDispatch }

func (PoolEvent) rawEvent()     {}
func (DispatchEvent) rawEvent() {}

// Channelled reports whether the event was multiplexed over a channel.
func (e DispatchEvent) Channelled() bool {
	return e.Channel != nil
}

// NewPoolEvent builds a PoolEvent from an observer callback. A kind that is
// not a Kind is kept in its textual form.
func NewPoolEvent(kind any, args ...any) PoolEvent {
	return PoolEvent{Kind: kindOf(kind), Args: args}
}

// NewDispatchEvent builds a DispatchEvent from an observer callback.
//
// If kind is a Kind the event is a plain dispatch event. Otherwise kind is a
// channel name and the real tag is the first argument, which is removed from
// Args. A channelled event without arguments has an empty Kind.
func NewDispatchEvent(kind any, args ...any) DispatchEvent {
	if k, ok := kind.(Kind); ok {
		return DispatchEvent{Kind: k, Args: args, Symbolic: true}
	}
	if kind == nil {
		kind = ""
	}
	ev := DispatchEvent{Channel: kind}
	if len(args) > 0 {
		_, ev.Symbolic = args[0].(Kind)
		ev.Kind = kindOf(args[0])
		ev.Args = args[1:]
	}
	return ev
}

func kindOf(v any) Kind {
	switch k := v.(type) {
	case Kind:
		return k
	case string:
		return Kind(k)
	case nil:
		return ""
	default:
		return Kind(fmt.Sprint(k))
	}
}
