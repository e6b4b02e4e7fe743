package history

import (
	"testing"

	"github.com/petrijr/rastro/pkg/api"
)

func TestNormalize_PoolAllowList(t *testing.T) {
	kept := []api.Kind{
		api.KindLaunch, api.KindTerminate, api.KindCancel, api.KindError,
		api.KindReschedule, api.KindStop, api.KindPause, api.KindResume,
	}
	for _, k := range kept {
		e, ok := Normalize(api.NewPoolEvent(k))
		if !ok {
			t.Fatalf("expected pool event %q to be kept", k)
		}
		if e.Source != api.SourcePool || e.Kind != k {
			t.Fatalf("unexpected entry for %q: %+v", k, e)
		}
	}

	dropped := []api.Kind{
		api.KindApply, api.KindReply, api.KindUpdate, api.KindRemove,
		api.KindForget, api.KindLaunchChild, api.KindLaunchOrphan, api.KindReplyToParent,
		"anything-else",
	}
	for _, k := range dropped {
		if _, ok := Normalize(api.NewPoolEvent(k)); ok {
			t.Fatalf("expected pool event %q to be dropped", k)
		}
	}
}

func TestNormalize_DispatchAfterConsumeDropped(t *testing.T) {
	wi := &api.WorkItem{Participant: "alpha"}

	if _, ok := Normalize(api.NewDispatchEvent(api.KindDispatch, api.KindAfterConsume, wi)); ok {
		t.Fatalf("expected plain after_consume echo to be dropped")
	}
	if _, ok := Normalize(api.NewDispatchEvent("alpha", api.KindAfterConsume, wi)); ok {
		t.Fatalf("expected channelled after_consume echo to be dropped")
	}
}

func TestNormalize_DispatchChannelSwap(t *testing.T) {
	item := &api.WorkItem{Participant: "worker-1"}

	e, ok := Normalize(api.NewDispatchEvent("worker-1", api.Kind("step_done"), item))
	if !ok {
		t.Fatalf("expected event to be kept")
	}
	if e.Source != api.SourceDispatch {
		t.Fatalf("expected dispatch source, got %q", e.Source)
	}
	if e.Kind != "step_done" {
		t.Fatalf("expected kind step_done, got %q", e.Kind)
	}
	if len(e.Args) != 2 || e.Args[0] != "worker-1" || e.Args[1] != item {
		t.Fatalf("expected [worker-1 item], got %#v", e.Args)
	}
}

func TestNormalize_DispatchChannelApplyDropped(t *testing.T) {
	item := &api.WorkItem{Participant: "worker-1"}

	if _, ok := Normalize(api.NewDispatchEvent("worker-1", api.KindApply, item)); ok {
		t.Fatalf("expected channelled apply to be dropped")
	}
}

func TestNormalize_DispatchChannelTextTagsKept(t *testing.T) {
	e, ok := Normalize(api.NewDispatchEvent("worker-1", "apply", "x"))
	if !ok {
		t.Fatalf("expected channelled text apply to be kept")
	}
	if e.Kind != api.KindApply || len(e.Args) != 2 || e.Args[0] != "worker-1" || e.Args[1] != "x" {
		t.Fatalf("unexpected entry: %+v", e)
	}

	e, ok = Normalize(api.NewDispatchEvent("worker-1", "after_consume"))
	if !ok {
		t.Fatalf("expected channelled text after_consume to be kept")
	}
	if e.Kind != api.KindAfterConsume || len(e.Args) != 1 || e.Args[0] != "worker-1" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestNormalize_DispatchPlainTextAfterConsumeKept(t *testing.T) {
	e, ok := Normalize(api.NewDispatchEvent(api.KindDispatch, "after_consume"))
	if !ok {
		t.Fatalf("expected plain dispatch with text after_consume to be kept")
	}
	if e.Kind != api.KindDispatch || len(e.Args) != 1 || e.Args[0] != "after_consume" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestNormalize_DispatchPlainApplyKept(t *testing.T) {
	item := &api.WorkItem{Participant: "worker-1"}

	e, ok := Normalize(api.NewDispatchEvent(api.KindApply, item))
	if !ok || e.Kind != api.KindApply {
		t.Fatalf("expected plain apply to be kept, got %+v ok=%v", e, ok)
	}
}

func TestNormalize_DispatchMalformedFallsThroughToSwap(t *testing.T) {
	e, ok := Normalize(api.NewDispatchEvent("worker-1", "not-a-symbol", 3))
	if !ok {
		t.Fatalf("expected event to be kept")
	}
	if e.Kind != "not-a-symbol" {
		t.Fatalf("expected kind from first arg, got %q", e.Kind)
	}
	if len(e.Args) != 2 || e.Args[0] != "worker-1" || e.Args[1] != 3 {
		t.Fatalf("unexpected args: %#v", e.Args)
	}
}

func TestNormalize_DispatchChannelWithoutArgsDropped(t *testing.T) {
	if _, ok := Normalize(api.NewDispatchEvent("worker-1")); ok {
		t.Fatalf("expected channel event without kind to be dropped")
	}
}

func TestNormalize_DoesNotMutateRawArgs(t *testing.T) {
	raw := []any{api.Kind("reply"), "payload"}
	ev := api.NewDispatchEvent("alpha", raw...)

	if _, ok := Normalize(ev); !ok {
		t.Fatalf("expected event to be kept")
	}
	if raw[0] != api.Kind("reply") || raw[1] != "payload" {
		t.Fatalf("raw args were modified: %#v", raw)
	}
}
