package governance

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	berr "github.com/next-trace/stashit/contract/errors"
)

// FactsVar is the CEL variable predicates are written against: `facts.amount > 100`.
const FactsVar = "facts"

var (
	envOnce sync.Once
	celEnv  *cel.Env
	envErr  error

	programs sync.Map // expr -> cel.Program
)

func env() (*cel.Env, error) {
	envOnce.Do(func() {
		celEnv, envErr = cel.NewEnv(cel.Variable(FactsVar, cel.MapType(cel.StringType, cel.DynType)))
	})

	return celEnv, envErr
}

// Predicate is a compiled boolean CEL expression.
type Predicate struct{ expr string }

// ParsePredicate compiles expr and rejects expressions that cannot yield a bool.
func ParsePredicate(expr string) (Predicate, error) {
	if _, err := program(expr); err != nil {
		return Predicate{}, err
	}

	return Predicate{expr: expr}, nil
}

func program(expr string) (cel.Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(cel.Program), nil
	}

	e, err := env()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("predicate %q: %w", expr, errors.Join(berr.ErrInvalidValue, issues.Err()))
	}

	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("predicate %q yields %s, not bool: %w", expr, out, berr.ErrInvalidValue)
	}

	p, err := e.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", expr, errors.Join(berr.ErrInvalidValue, err))
	}

	actual, _ := programs.LoadOrStore(expr, p)

	return actual.(cel.Program), nil
}

func (p Predicate) String() string { return p.expr }

// Eval runs the predicate against facts.
func (p Predicate) Eval(facts map[string]any) (bool, error) {
	prg, err := program(p.expr)
	if err != nil {
		return false, err
	}

	if facts == nil {
		facts = map[string]any{}
	}

	out, _, err := prg.Eval(map[string]any{FactsVar: facts})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}

	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result %T is not bool: %w", p.expr, out.Value(), berr.ErrInvalidValue)
	}

	return v, nil
}

func (p Predicate) MarshalJSON() ([]byte, error) { return json.Marshal(p.expr) }

func (p *Predicate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := ParsePredicate(s)
	if err != nil {
		return err
	}

	*p = v

	return nil
}
