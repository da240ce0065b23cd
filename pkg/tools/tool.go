// Package tools defines the tool contract and the built-in tools the
// engine exposes to the model.
package tools

import (
	"context"

	"github.com/Sayfan-AI/ai-six-sub000/pkg/llm"
)

// Tool is one capability the model may invoke. Parameters is a JSON Schema
// object describing the arguments; Execute receives the parsed argument map
// and returns the textual result handed back to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Declarations converts tools to the wire form offered to a backend.
func Declarations(ts []Tool) []llm.ToolDeclaration {
	decls := make([]llm.ToolDeclaration, 0, len(ts))
	for _, t := range ts {
		decls = append(decls, llm.ToolDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return decls
}
