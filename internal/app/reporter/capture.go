package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/errwatch/internal/domain"
)

// Originer is implemented by errors that know which component raised or
// observed them.
type Originer interface {
	Origin() string
}

type originError struct {
	err    error
	origin string
}

func (e *originError) Error() string  { return e.err.Error() }
func (e *originError) Unwrap() error  { return e.err }
func (e *originError) Origin() string { return e.origin }

// WithOrigin tags err with the component that observed it.
func WithOrigin(err error, component string) error {
	if err == nil {
		return nil
	}
	return &originError{err: err, origin: component}
}

// Capture serializes err and its cause chain into a generic tree. Each node
// carries type, message, originatingComponent when known, details when the
// error marshals to a JSON object, and cause. A nil error yields a null tree.
func Capture(err error, maxDepth int) (tree domain.Value, captureErr error) {
	if maxDepth <= 0 {
		maxDepth = domain.MaxCauseDepth
	}

	defer func() {
		if r := recover(); r != nil {
			tree = domain.NullValue()
			captureErr = fmt.Errorf("%w: %v", domain.ErrSerialization, r)
		}
	}()

	if err == nil {
		return domain.NullValue(), nil
	}

	var nodes []map[string]any
	for cur := err; cur != nil; cur = nextCause(cur) {
		if len(nodes) >= maxDepth {
			return domain.NullValue(), fmt.Errorf("%w: cause chain deeper than %d", domain.ErrMalformedInput, maxDepth)
		}
		nodes = append(nodes, describe(cur))
	}

	var linked any
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i][domain.FieldCause] = linked
		linked = nodes[i]
	}

	data, mErr := json.Marshal(linked)
	if mErr != nil {
		return domain.NullValue(), fmt.Errorf("%w: %v", domain.ErrSerialization, mErr)
	}
	return domain.DecodeValue(data)
}

func describe(err error) map[string]any {
	node := map[string]any{
		domain.FieldType:    typeName(err),
		domain.FieldMessage: err.Error(),
	}

	if o, ok := err.(Originer); ok {
		if origin := o.Origin(); origin != "" {
			node[domain.FieldOrigin] = origin
		}
	}

	if details := exportedFields(err); details != nil {
		node[domain.FieldDetails] = details
	}

	return node
}

func typeName(err error) string {
	return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
}

// exportedFields is best-effort: anything that fails to marshal, or is not a
// non-empty object, is dropped.
func exportedFields(err error) (fields map[string]any) {
	defer func() {
		if recover() != nil {
			fields = nil
		}
	}()

	data, mErr := json.Marshal(err)
	if mErr != nil {
		return nil
	}

	var obj map[string]any
	if json.Unmarshal(data, &obj) != nil || len(obj) == 0 {
		return nil
	}
	return obj
}

func nextCause(err error) error {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Cause() error }:
		return e.Cause()
	case interface{ Unwrap() []error }:
		if errs := e.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}
