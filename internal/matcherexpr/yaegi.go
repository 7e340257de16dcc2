// Package matcherexpr evaluates author-written matcher expressions against an
// analysis result. Expressions are interpreted, never compiled, so a broken
// or hostile expression fails locally instead of taking the engine down.
package matcherexpr

import (
	"context"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Evaluator runs a matcher expression with the analysis result bound as
// `result`. The returned value keeps its dynamic type: the caller decides
// what a strict bool versus an arbitrary truthy value means.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, result map[string]interface{}) (interface{}, error)
}

// YaegiEvaluator interprets matcher expressions as Go expressions over the
// bound `result` map.
type YaegiEvaluator struct{}

// NewYaegiEvaluator creates a yaegi-backed evaluator.
func NewYaegiEvaluator() *YaegiEvaluator {
	return &YaegiEvaluator{}
}

const matcherTemplate = `package main

func Match(result map[string]interface{}) interface{} {
	return %s
}
`

type evalOutcome struct {
	val interface{}
	err error
}

// Evaluate interprets expr with a fresh interpreter per call: state poisoned
// by one rule's expression must not leak into the next rule. The evaluation
// runs in its own goroutine and is abandoned when ctx expires.
func (e *YaegiEvaluator) Evaluate(ctx context.Context, expr string, result map[string]interface{}) (interface{}, error) {
	if expr == "" {
		return nil, fmt.Errorf("matcherexpr: empty expression")
	}

	ch := make(chan evalOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalOutcome{err: fmt.Errorf("matcherexpr: expression panicked: %v", r)}
			}
		}()

		i := interp.New(interp.Options{})
		if err := i.Use(stdlib.Symbols); err != nil {
			ch <- evalOutcome{err: fmt.Errorf("matcherexpr: load stdlib: %w", err)}
			return
		}

		if _, err := i.Eval(fmt.Sprintf(matcherTemplate, expr)); err != nil {
			ch <- evalOutcome{err: fmt.Errorf("matcherexpr: invalid expression: %w", err)}
			return
		}

		v, err := i.Eval("main.Match")
		if err != nil {
			ch <- evalOutcome{err: fmt.Errorf("matcherexpr: resolve matcher: %w", err)}
			return
		}
		fn, ok := v.Interface().(func(map[string]interface{}) interface{})
		if !ok {
			ch <- evalOutcome{err: fmt.Errorf("matcherexpr: matcher has unexpected signature")}
			return
		}

		ch <- evalOutcome{val: fn(result)}
	}()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("matcherexpr: evaluation timed out: %w", ctx.Err())
	}
}
