package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrEmptySource indicates there was nothing to compile.
var ErrEmptySource = errors.New("empty source")

// Result holds compiled browser-executable JavaScript.
type Result struct {
	Code     string
	Warnings []string
}

// Compiler transforms JSX/TSX component source into plain JavaScript
// using esbuild's classic React transform.
type Compiler struct {
	loader api.Loader
}

// New creates a compiler with the TSX loader.
func New() *Compiler {
	return &Compiler{loader: api.LoaderTSX}
}

// Compile transforms source text. Syntax errors come back as a single
// error carrying the first esbuild message.
func (c *Compiler) Compile(source string) (*Result, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	result := api.Transform(source, api.TransformOptions{
		Loader: c.loader,
		JSX:    api.JSXTransform,
		Target: api.ES2020,
	})

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("compile failed: %s", formatMessage(result.Errors[0]))
	}

	out := &Result{Code: string(result.Code)}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, formatMessage(w))
	}
	return out, nil
}

func formatMessage(msg api.Message) string {
	if msg.Location != nil {
		return fmt.Sprintf("%s (line %d)", msg.Text, msg.Location.Line)
	}
	return msg.Text
}
