// Package textgen hides the hosted language model behind one capability:
// turn a rendered prompt (plus the structured input it came from) into text.
package textgen

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse     = errors.New("textgen: empty response")
	ErrUnknownTool       = errors.New("textgen: model called an unknown tool")
	ErrTooManyToolRounds = errors.New("textgen: too many tool rounds")
)

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Request struct {
	System string
	Prompt string

	// Input is the structured data Prompt was rendered from. Remote models
	// only see Prompt; local generators may build their reply from Input.
	Input map[string]any

	Tools []Tool
}

// Tool is a function the model may call before answering.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     func(ctx context.Context, args map[string]any) (any, error)
}

type ParamType string

const (
	Boolean ParamType = "boolean"
	String  ParamType = "string"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Func adapts an ordinary function to a Generator.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Call runs the named tool from req, which is how local generators honor
// the same tool contract as a remote model.
func (req Request) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	for _, t := range req.Tools {
		if t.Name == name {
			return t.Handler(ctx, args)
		}
	}
	return nil, ErrUnknownTool
}
