package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/gmarkoss/tessera/internal/core"
)

// Rule binds a claim matcher to a flow decision. Rules are evaluated
// in declaration order; the first match wins.
type Rule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description" json:"description"`

	// Match defines which claims this rule applies to.
	Match Match `yaml:"match" json:"match"`

	// Grant defines where a matched claim may flow.
	Grant Grant `yaml:"grant" json:"grant"`
}

// Match selects claims by type and, optionally, by expression.
type Match struct {
	// Claim is the claim type this rule applies to. Empty matches
	// every claim type.
	Claim string `yaml:"claim" json:"claim"`

	// Expr is an optional expression for more complex matching logic,
	// evaluated against the claim and its ticket.
	Expr string `yaml:"expr" json:"expr"`

	// CompiledExpr holds the pre-compiled form of Expr.
	CompiledExpr *vm.Program `yaml:"-" json:"-"`
}

// Grant states what a matched claim is allowed to do.
type Grant struct {
	// Destinations lists the token kinds the claim may be serialized
	// into. Applied only to claims that do not already carry explicit
	// destinations.
	Destinations []core.TokenKind `yaml:"destinations" json:"destinations"`

	// Disclose controls whether the claim may appear in introspection
	// responses shown to trusted callers.
	Disclose *bool `yaml:"disclose" json:"disclose"`
}

// CompileRules validates the rule set and pre-compiles its
// expressions. Rules come back in declaration order, ready for an
// Engine.
func CompileRules(rules []Rule) ([]Rule, error) {
	seenNames := make(map[string]struct{})
	compiled := make([]Rule, 0, len(rules))

	for i, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("claims policy rule #%d missing name", i)
		}
		if _, exists := seenNames[rule.Name]; exists {
			return nil, fmt.Errorf("claims policy rule name %q is not unique", rule.Name)
		}
		seenNames[rule.Name] = struct{}{}

		if rule.Match.Claim == "" && rule.Match.Expr == "" {
			return nil, fmt.Errorf("claims policy rule %q matches nothing: set match.claim or match.expr", rule.Name)
		}
		for _, kind := range rule.Grant.Destinations {
			if !kind.IsValid() {
				return nil, fmt.Errorf("claims policy rule %q grants unknown destination %q", rule.Name, kind)
			}
		}

		if rule.Match.Expr != "" {
			program, err := expr.Compile(rule.Match.Expr, expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compiling expr for claims policy rule %q: %w", rule.Name, err)
			}
			rule.Match.CompiledExpr = program
		}

		compiled = append(compiled, rule)
	}

	return compiled, nil
}
