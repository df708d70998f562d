package engagement

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// MinIntelTurns is the engagement floor before critical intel alone may
// trigger a report.
const MinIntelTurns = 3

// DefaultTriggerExpr reports when the turn ceiling is reached, or when a
// payment handle or bank account is known after the minimum engagement.
const DefaultTriggerExpr = `turns >= max_turns || (critical_intel && turns >= min_turns)`

// Trigger decides when a session's report is due. It is a compiled CEL
// program over turns, max_turns, min_turns and critical_intel.
type Trigger struct {
	expr     string
	maxTurns int
	program  cel.Program
}

// NewTrigger compiles expr. An empty expr means DefaultTriggerExpr.
func NewTrigger(expr string, maxTurns int) (*Trigger, error) {
	if expr == "" {
		expr = DefaultTriggerExpr
	}
	if maxTurns < 1 {
		return nil, errors.Errorf("max turns must be at least 1, got %d", maxTurns)
	}

	env, err := cel.NewEnv(
		cel.Variable("turns", cel.IntType),
		cel.Variable("max_turns", cel.IntType),
		cel.Variable("min_turns", cel.IntType),
		cel.Variable("critical_intel", cel.BoolType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trigger environment")
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid trigger expression %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("trigger expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build trigger program")
	}

	return &Trigger{expr: expr, maxTurns: maxTurns, program: program}, nil
}

// Expr returns the source expression.
func (t *Trigger) Expr() string {
	return t.expr
}

// ShouldReport evaluates the policy. Evaluation errors count as "not yet".
func (t *Trigger) ShouldReport(turns int, criticalIntel bool) (bool, error) {
	out, _, err := t.program.Eval(map[string]any{
		"turns":          int64(turns),
		"max_turns":      int64(t.maxTurns),
		"min_turns":      int64(MinIntelTurns),
		"critical_intel": criticalIntel,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate trigger")
	}

	fire, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("trigger returned %T, want bool", out.Value())
	}
	return fire, nil
}
