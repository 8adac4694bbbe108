package decision

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/paydeck/paydeck/pkg/models"
)

// PolicyRule is one configurable policy predicate. When Expression evaluates
// to true against the workflow data, Outcome is merged into the engine's
// verdict under the strictest-outcome tie-break and Flag is surfaced to the
// reviewer.
type PolicyRule struct {
	Name       string          `json:"name"`
	Expression string          `json:"expression"`
	Outcome    models.Decision `json:"outcome"`
	Flag       string          `json:"flag,omitempty"`
}

// exprEvaluator compiles and caches rule expressions. Compiled programs are
// cached per expression so repeated evaluations skip compilation.
type exprEvaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

func newExprEvaluator() *exprEvaluator {
	return &exprEvaluator{
		cache: make(map[string]*vm.Program),
	}
}

// evaluate runs the expression against the given environment. The expression
// must evaluate to a boolean; otherwise an error is returned.
func (e *exprEvaluator) evaluate(expression string, env map[string]any) (bool, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()

	if !ok {
		e.mu.Lock()
		if program, ok = e.cache[expression]; !ok {
			var err error

			program, err = expr.Compile(expression, expr.Env(env), expr.AsBool())
			if err != nil {
				e.mu.Unlock()

				return false, fmt.Errorf("failed to compile rule expression %q: %w", expression, err)
			}

			e.cache[expression] = program
		}
		e.mu.Unlock()
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to run rule expression %q: %w", expression, err)
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule expression %q did not evaluate to a boolean, got %T", expression, result)
	}

	return boolResult, nil
}
