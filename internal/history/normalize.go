package history

import "github.com/petrijr/rastro/pkg/api"

// poolKinds are the expression pool events worth keeping. Everything else the
// pool raises (apply, reply, update, ...) is per-expression chatter.
var poolKinds = map[api.Kind]struct{}{
	api.KindLaunch:     {},
	api.KindTerminate:  {},
	api.KindCancel:     {},
	api.KindError:      {},
	api.KindReschedule: {},
	api.KindStop:       {},
	api.KindPause:      {},
	api.KindResume:     {},
}

// Entry is a normalized event: one source, one kind, and the arguments in
// the order they will be inspected.
type Entry struct {
	Source api.Source
	Kind   api.Kind
	Args   []any
}

// Normalize turns a raw event into an Entry, or reports false when the event
// is not recorded.
//
// Channelled dispatch events come back with the channel name as their first
// argument, in place of the tag that was reported there. Only a symbolic
// apply or after_consume tag drops a channelled event; the same words as
// text are kept.
func Normalize(ev api.RawEvent) (Entry, bool) {
	switch e := ev.(type) {
	case api.PoolEvent:
		if _, ok := poolKinds[e.Kind]; !ok {
			return Entry{}, false
		}
		return Entry{Source: api.SourcePool, Kind: e.Kind, Args: e.Args}, true

	case api.DispatchEvent:
		if !e.Channelled() {
			if len(e.Args) > 0 && isKind(e.Args[0], api.KindAfterConsume) {
				return Entry{}, false
			}
			return Entry{Source: api.SourceDispatch, Kind: e.Kind, Args: e.Args}, true
		}

		if e.Kind == "" {
			return Entry{}, false
		}
		if e.Symbolic && (e.Kind == api.KindAfterConsume || e.Kind == api.KindApply) {
			return Entry{}, false
		}
		args := make([]any, 0, len(e.Args)+1)
		args = append(args, e.Channel)
		args = append(args, e.Args...)
		return Entry{Source: api.SourceDispatch, Kind: e.Kind, Args: args}, true
	}
	return Entry{}, false
}

func isKind(v any, k api.Kind) bool {
	got, ok := v.(api.Kind)
	return ok && got == k
}
