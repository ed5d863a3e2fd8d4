// Package inference asks a generative language model which CSS selectors
// locate the reviews described by a PageStructure.
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/pkg/common"
)

// ServiceName labels errors raised by this package
const ServiceName = "selector inference"

// Inferrer proposes selectors for a page
type Inferrer interface {
	Infer(ctx context.Context, structure common.PageStructure) (common.SelectorMap, error)
}

// InferrerFunc adapts a function to the Inferrer interface
type InferrerFunc func(ctx context.Context, structure common.PageStructure) (common.SelectorMap, error)

func (f InferrerFunc) Infer(ctx context.Context, structure common.PageStructure) (common.SelectorMap, error) {
	return f(ctx, structure)
}

// StaticInferrer always answers with the same selectors
type StaticInferrer common.SelectorMap

func (s StaticInferrer) Infer(ctx context.Context, _ common.PageStructure) (common.SelectorMap, error) {
	if err := ctx.Err(); err != nil {
		return common.SelectorMap{}, err
	}
	return common.SelectorMap(s), nil
}

// ParseSelectors decodes a model reply. The reply must be a bare JSON
// object; nothing is stripped or repaired first, and keys the model left out
// stay empty. null, arrays and scalars are rejected.
func ParseSelectors(reply string) (common.SelectorMap, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reply), &fields); err != nil {
		return common.SelectorMap{}, invalidReply(err)
	}
	if fields == nil {
		return common.SelectorMap{}, invalidReply(errors.New("reply is not a JSON object"))
	}

	var sel common.SelectorMap
	if err := json.Unmarshal([]byte(reply), &sel); err != nil {
		return common.SelectorMap{}, invalidReply(err)
	}
	return sel, nil
}

func invalidReply(err error) error {
	return &errs.ExternalServiceError{
		Service: ServiceName,
		Err:     fmt.Errorf("invalid selector JSON: %w", err),
	}
}
