package expression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine is a wrapper around expr-lang/expr used to evaluate workflow edge
// conditions against request form data. Compiled programs are cached per
// expression string.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (if needed) and runs an expression against the given environment
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, err
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// EvaluateBool evaluates an expression and requires a boolean result.
// Used for edge conditions where anything other than true/false is a
// definition defect.
func (e *Engine) EvaluateBool(expression string, env map[string]interface{}) (bool, error) {
	result, err := e.Evaluate(expression, env)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T, want bool", expression, result)
	}
	return b, nil
}

// Validate reports whether the expression compiles. Used at definition parse
// time so malformed conditions are rejected before any request reaches them.
func (e *Engine) Validate(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	// Conditions run against an untyped form-data map, so the environment is
	// left open. Standard helpers cover the common admin-authored predicates.
	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("TODAY", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02"), nil
		}),
		expr.Function("LEN", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("LEN requires 1 argument")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("LEN argument must be string")
			}
			return len(s), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("LOWER requires 1 argument")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("LOWER argument must be string")
			}
			return strings.ToLower(s), nil
		}),
		expr.Function("IF", func(params ...interface{}) (interface{}, error) {
			if len(params) != 3 {
				return nil, fmt.Errorf("IF requires 3 arguments (condition, true_value, false_value)")
			}
			cond, ok := params[0].(bool)
			if !ok {
				return nil, fmt.Errorf("IF condition must be boolean")
			}
			if cond {
				return params[1], nil
			}
			return params[2], nil
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[expression] = program
	return program, nil
}
