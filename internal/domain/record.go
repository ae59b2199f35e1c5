package domain

import "fmt"

// MaxCauseDepth bounds cause-chain descent.
const MaxCauseDepth = 1000

// Field names of a serialized error node.
const (
	FieldType    = "type"
	FieldMessage = "message"
	FieldCause   = "cause"
	FieldOrigin  = "originatingComponent"
	FieldDetails = "details"
)

// ErrorRecord is one link of a normalized cause chain. Each record owns its
// direct cause; chains are acyclic.
type ErrorRecord struct {
	TypeName string
	Message  string
	Origin   string
	Details  Value
	Cause    *ErrorRecord
}

// RootCause is the outcome of descending a cause chain.
type RootCause struct {
	TypeName       string
	Message        string
	OriginLocation string
	Details        Value
	Depth          int
}

// NewErrorRecord normalizes a serialized error tree. Nodes lacking a type or
// message get empty strings; a non-mapping tree yields an empty record.
func NewErrorRecord(tree Value, maxDepth int) (*ErrorRecord, error) {
	if maxDepth <= 0 {
		maxDepth = MaxCauseDepth
	}

	head := &ErrorRecord{}
	current := head
	node := tree

	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return head, fmt.Errorf("%w: cause chain deeper than %d", ErrMalformedInput, maxDepth)
		}

		current.TypeName = textField(node, FieldType)
		current.Message = textField(node, FieldMessage)
		current.Origin = textField(node, FieldOrigin)
		if details, ok := node.Field(FieldDetails); ok && details.Kind() == KindMapping {
			current.Details = details
		}

		next, ok := node.Field(FieldCause)
		if !ok || next.Kind() != KindMapping {
			return head, nil
		}

		current.Cause = &ErrorRecord{}
		current = current.Cause
		node = next
	}
}

// RootCause walks to the record with no cause. The origin accumulator is
// overwritten at every level that carries one, so an intermediate origin
// survives when deeper levels have none.
func (r *ErrorRecord) RootCause(maxDepth int) (RootCause, error) {
	if maxDepth <= 0 {
		maxDepth = MaxCauseDepth
	}

	var rc RootCause
	if r == nil {
		return rc, nil
	}

	current := r
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return rc, fmt.Errorf("%w: cause chain deeper than %d", ErrMalformedInput, maxDepth)
		}

		if current.Origin != "" {
			rc.OriginLocation = current.Origin
		}

		if current.Cause == nil {
			rc.TypeName = current.TypeName
			rc.Message = current.Message
			rc.Details = current.Details
			rc.Depth = depth
			return rc, nil
		}
		current = current.Cause
	}
}

func textField(node Value, key string) string {
	f, ok := node.Field(key)
	if !ok {
		return ""
	}
	return f.Text()
}
