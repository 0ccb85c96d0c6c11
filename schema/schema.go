package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	signet "github.com/signetauth/signet"
)

// celEnv builds the shared evaluation environment once. Rules see the
// decoded claim set as `claims` and the verification instant as `now`.
var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("claims", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("now", cel.TimestampType),
	)
})

// Rule is a single compiled claims requirement. Compilation happens once
// at configuration time; evaluation runs on every verification.
type Rule struct {
	name    string
	expr    string
	program cel.Program
}

// Compile builds a rule from a CEL expression. The expression must
// evaluate to a boolean; guard optional claims with has(), as accessing
// a missing key is an evaluation error and rejects the token.
func Compile(name, expression string) (*Rule, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", name, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", name, err)
	}

	return &Rule{
		name:    name,
		expr:    expression,
		program: program,
	}, nil
}

// Name returns the rule name used in rejection errors.
func (r *Rule) Name() string { return r.name }

// Expression returns the source expression.
func (r *Rule) Expression() string { return r.expr }

// ValidateClaims implements [signet.ClaimsValidator]. A false result, a
// non-boolean result, and an evaluation error all reject the token.
func (r *Rule) ValidateClaims(_ context.Context, claims signet.Claims) error {
	out, _, err := r.program.Eval(map[string]any{
		"claims": map[string]any(claims),
		"now":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%w: rule %q: %v", signet.ErrClaimsRejected, r.name, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return fmt.Errorf("%w: rule %q: expression did not yield a boolean", signet.ErrClaimsRejected, r.name)
	}
	if !ok {
		return fmt.Errorf("%w: rule %q", signet.ErrClaimsRejected, r.name)
	}
	return nil
}

// RuleDef names one expression for CompileAll.
type RuleDef struct {
	Name       string
	Expression string
}

// RuleSet evaluates rules in definition order and rejects on the first
// failure.
type RuleSet struct {
	rules []*Rule
}

// CompileAll compiles every definition into a single validator.
func CompileAll(defs []RuleDef) (*RuleSet, error) {
	set := &RuleSet{rules: make([]*Rule, 0, len(defs))}
	for _, def := range defs {
		rule, err := Compile(def.Name, def.Expression)
		if err != nil {
			return nil, err
		}
		set.rules = append(set.rules, rule)
	}
	return set, nil
}

// Rules returns the compiled rules in evaluation order.
func (s *RuleSet) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// ValidateClaims implements [signet.ClaimsValidator] over the whole set.
func (s *RuleSet) ValidateClaims(ctx context.Context, claims signet.Claims) error {
	for _, rule := range s.rules {
		if err := rule.ValidateClaims(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}
