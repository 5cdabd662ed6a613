// Package inference tags IR functions with usage patterns inferred from
// naming conventions and signature shape. Passes run in a fixed order and
// only ever add tags or fill unset semantics, so running the engine twice
// over a module changes nothing.
package inference

import (
	"cirgen/internal/core/errors"
	"cirgen/internal/engine/ir"
	"fmt"
	"time"
)

// Engine runs an ordered list of passes over a module.
type Engine struct {
	passes []Pass
	rules  Rules
}

// PassResult describes one pass execution.
type PassResult struct {
	Pass     string
	Added    int
	Duration time.Duration
}

// NewEngine validates the pass order: names must be unique and every
// requirement must run earlier.
func NewEngine(rules Rules, passes ...Pass) (*Engine, error) {
	seen := make(map[string]bool, len(passes))
	for _, p := range passes {
		if p.Name == "" || p.Run == nil {
			return nil, errors.New(errors.CodeValidationError, "pass needs a name and a run function")
		}
		if seen[p.Name] {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("duplicate pass %q", p.Name))
		}
		for _, req := range p.Requires {
			if !seen[req] {
				return nil, errors.New(errors.CodeValidationError,
					fmt.Sprintf("pass %q requires %q to run before it", p.Name, req))
			}
		}
		seen[p.Name] = true
	}
	return &Engine{passes: append([]Pass(nil), passes...), rules: rules}, nil
}

// New returns the default pipeline with rules.
func New(rules Rules) *Engine {
	e, err := NewEngine(rules, DefaultPasses()...)
	if err != nil {
		panic(err)
	}
	return e
}

// Default is New(DefaultRules()).
func Default() *Engine {
	return New(DefaultRules())
}

// Passes returns the pass names in execution order.
func (e *Engine) Passes() []string {
	names := make([]string, len(e.passes))
	for i, p := range e.passes {
		names[i] = p.Name
	}
	return names
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Run annotates m in place.
func (e *Engine) Run(m *ir.Module) {
	e.RunObserved(m, nil)
}

// RunObserved is Run with a callback after each pass.
func (e *Engine) RunObserved(m *ir.Module, observe func(PassResult)) {
	if m == nil {
		return
	}
	for _, p := range e.passes {
		before := m.PatternCount()
		start := time.Now()
		p.Run(m, &e.rules)
		if observe != nil {
			observe(PassResult{
				Pass:     p.Name,
				Added:    m.PatternCount() - before,
				Duration: time.Since(start),
			})
		}
	}
}
