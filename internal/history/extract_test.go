package history

import (
	"testing"

	"github.com/petrijr/rastro/pkg/api"
)

type feiBearer struct {
	fei api.FlowExpressionID
}

func (b feiBearer) CorrelationID() api.FlowExpressionID { return b.fei }

func TestCorrelationID_FirstQualifyingArgument(t *testing.T) {
	first := feiBearer{fei: api.FlowExpressionID{WorkflowInstanceID: "wf-1", ExpressionID: "0.1"}}
	second := feiBearer{fei: api.FlowExpressionID{WorkflowInstanceID: "wf-2", ExpressionID: "0.2"}}

	got, ok := CorrelationID([]any{"plain", 12, first, second})
	if !ok {
		t.Fatalf("expected a correlation id")
	}
	if got != first.fei {
		t.Fatalf("expected %v, got %v", first.fei, got)
	}
}

func TestCorrelationID_BareIDs(t *testing.T) {
	fei := api.FlowExpressionID{WorkflowInstanceID: "wf-1"}

	if got, ok := CorrelationID([]any{fei}); !ok || got != fei {
		t.Fatalf("expected value fei, got %v ok=%v", got, ok)
	}
	if got, ok := CorrelationID([]any{&fei}); !ok || got != fei {
		t.Fatalf("expected pointer fei, got %v ok=%v", got, ok)
	}
}

func TestCorrelationID_WorkItem(t *testing.T) {
	fei := api.FlowExpressionID{WorkflowInstanceID: "wf-9", ExpressionID: "0.0.1"}
	wi := &api.WorkItem{FEI: fei, Participant: "alpha"}

	got, ok := CorrelationID([]any{api.KindDispatch, wi})
	if !ok || got != fei {
		t.Fatalf("expected work item fei, got %v ok=%v", got, ok)
	}
}

func TestCorrelationID_WorkItemByValue(t *testing.T) {
	fei := api.FlowExpressionID{WorkflowInstanceID: "wf-9", ExpressionID: "0.0.2"}
	wi := api.WorkItem{FEI: fei, Participant: "alpha"}

	got, ok := CorrelationID([]any{"x", wi})
	if !ok || got != fei {
		t.Fatalf("expected work item fei, got %v ok=%v", got, ok)
	}
}

func TestCorrelationID_None(t *testing.T) {
	var nilFEI *api.FlowExpressionID
	var nilItem *api.WorkItem

	if _, ok := CorrelationID([]any{"a", api.KindLaunch, nilFEI, nilItem, nil}); ok {
		t.Fatalf("expected no correlation id")
	}
	if _, ok := CorrelationID(nil); ok {
		t.Fatalf("expected no correlation id for no args")
	}
}

func TestMessage_OrderPreservingSymbolsAndText(t *testing.T) {
	item := &api.WorkItem{Participant: "x"}
	item2 := map[string]any{"k": 1}

	got := Message([]any{api.Kind("a"), item, "b", item2, api.Kind("c")})
	if got != "a b c" {
		t.Fatalf("expected %q, got %q", "a b c", got)
	}
}

func TestMessage_Empty(t *testing.T) {
	if got := Message([]any{1, 2.5, &api.WorkItem{}}); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}

func TestWorkItem(t *testing.T) {
	wi := &api.WorkItem{Participant: "alpha"}
	var nilItem *api.WorkItem

	if got := WorkItem([]any{"x", nilItem, wi}); got != wi {
		t.Fatalf("expected work item, got %v", got)
	}
	if got := WorkItem([]any{"x"}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestWorkItem_ByValue(t *testing.T) {
	wi := api.WorkItem{Participant: "alpha"}

	got := WorkItem([]any{"x", wi})
	if got == nil || got.Participant != "alpha" {
		t.Fatalf("expected work item copy, got %v", got)
	}
}
