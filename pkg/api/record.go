package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FlowExpressionID identifies one expression instance inside a running
// process. It is the correlation key of history records.
type FlowExpressionID struct {
	EngineID           string `json:"engine_id" msgpack:"engine_id" bson:"engine_id"`
	WorkflowInstanceID string `json:"wfid" msgpack:"wfid" bson:"wfid"`
	ExpressionName     string `json:"expression_name" msgpack:"expression_name" bson:"expression_name"`
	ExpressionID       string `json:"expid" msgpack:"expid" bson:"expid"`
}

// NewFlowExpressionID returns the id of the root expression of a fresh
// process instance.
func NewFlowExpressionID(engineID, expressionName string) FlowExpressionID {
	return FlowExpressionID{
		EngineID:           engineID,
		WorkflowInstanceID: uuid.NewString(),
		ExpressionName:     expressionName,
		ExpressionID:       "0",
	}
}

// Child returns the id of the n-th child expression.
func (f FlowExpressionID) Child(name string, n int) FlowExpressionID {
	c := f
	c.ExpressionName = name
	c.ExpressionID = fmt.Sprintf("%s.%d", f.ExpressionID, n)
	return c
}

func (f FlowExpressionID) String() string {
	return fmt.Sprintf("(fei %s %s %s %s)", f.EngineID, f.WorkflowInstanceID, f.ExpressionName, f.ExpressionID)
}

// IsZero reports whether f carries no identity.
func (f FlowExpressionID) IsZero() bool {
	return f == FlowExpressionID{}
}

// HasCorrelationID is implemented by event arguments that know which
// expression they belong to.
type HasCorrelationID interface {
	CorrelationID() FlowExpressionID
}

// WorkItem is the payload carried from expression to participant and back.
// History treats it as opaque apart from its id and participant.
type WorkItem struct {
	FEI         FlowExpressionID
	Participant string
	Fields      map[string]any
}

func (w *WorkItem) CorrelationID() FlowExpressionID {
	return w.FEI
}

// Record is one history entry. Records are never mutated after creation.
type Record struct {
	Timestamp     time.Time         `json:"timestamp" msgpack:"timestamp"`
	Source        Source            `json:"source" msgpack:"source"`
	Kind          Kind              `json:"kind" msgpack:"kind"`
	CorrelationID *FlowExpressionID `json:"correlation_id,omitempty" msgpack:"correlation_id,omitempty"`
	Message       string            `json:"message,omitempty" msgpack:"message,omitempty"`

	// Participant is set when one of the arguments was a work item.
	Participant string `json:"participant,omitempty" msgpack:"participant,omitempty"`

	// Line is the formatted text form written to text sinks.
	Line string `json:"line" msgpack:"line"`
}

func (r Record) String() string {
	return r.Line
}
