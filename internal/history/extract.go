package history

import (
	"strings"

	"github.com/petrijr/rastro/pkg/api"
)

// CorrelationID returns the flow expression id of the first argument that
// carries one, or is one.
func CorrelationID(args []any) (api.FlowExpressionID, bool) {
	for _, a := range args {
		switch v := a.(type) {
		case api.FlowExpressionID:
			return v, true
		case *api.FlowExpressionID:
			if v != nil {
				return *v, true
			}
		case api.WorkItem:
			return v.FEI, true
		case api.HasCorrelationID:
			if !isNilPointer(v) {
				return v.CorrelationID(), true
			}
		}
	}
	return api.FlowExpressionID{}, false
}

// isNilPointer catches typed nil work items, the only HasCorrelationID
// implementation with a pointer receiver in this module.
func isNilPointer(v api.HasCorrelationID) bool {
	wi, ok := v.(*api.WorkItem)
	return ok && wi == nil
}

// Message joins the symbol and text arguments with single spaces, keeping
// their order. Other arguments are left out.
func Message(args []any) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case api.Kind:
			parts = append(parts, string(v))
		case string:
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// WorkItem returns the first work item among args, or nil. A work item
// passed by value is returned as a pointer to a copy.
func WorkItem(args []any) *api.WorkItem {
	for _, a := range args {
		switch wi := a.(type) {
		case *api.WorkItem:
			if wi != nil {
				return wi
			}
		case api.WorkItem:
			return &wi
		}
	}
	return nil
}
