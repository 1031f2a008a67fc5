package policy

import (
	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/core"
)

// Engine evaluates a compiled rule set against claims. An Engine is
// immutable; swap it through a Manager to pick up new rules.
type Engine struct {
	rules []Rule
}

// New creates an Engine over pre-compiled rules.
func New(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Apply stamps policy destinations onto every claim of the ticket that
// does not already carry explicit ones. Claims no rule matches keep an
// empty destination set, which excludes them from every serialized
// token.
func (e *Engine) Apply(ticket *core.Ticket) error {
	for _, identity := range ticket.Identities {
		if err := e.applyIdentity(ticket, identity); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyIdentity(ticket *core.Ticket, identity *core.Identity) error {
	for id := identity; id != nil; id = id.Actor {
		for _, claim := range id.Claims {
			if len(claim.Destinations()) > 0 {
				continue
			}
			rule, ok := e.match(ticket, claim)
			if !ok || len(rule.Grant.Destinations) == 0 {
				continue
			}
			if err := claim.SetDestinations(rule.Grant.Destinations...); err != nil {
				return err
			}
		}
	}
	return nil
}

// Disclose reports whether the claim may be shown to a trusted
// introspection caller. Claims no rule matches are disclosed; a
// matching rule may veto that.
func (e *Engine) Disclose(ticket *core.Ticket, claim *core.Claim) bool {
	rule, ok := e.match(ticket, claim)
	if !ok || rule.Grant.Disclose == nil {
		return true
	}
	return *rule.Grant.Disclose
}

func (e *Engine) match(ticket *core.Ticket, claim *core.Claim) (*Rule, bool) {
	for i := range e.rules {
		rule := &e.rules[i]
		if matches(rule, ticket, claim) {
			return rule, true
		}
	}
	return nil, false
}

func matches(rule *Rule, ticket *core.Ticket, claim *core.Claim) bool {
	if rule.Match.Claim != "" && rule.Match.Claim != claim.Type {
		return false
	}
	if rule.Match.CompiledExpr != nil {
		out, err := expr.Run(rule.Match.CompiledExpr, map[string]any{
			"claim": map[string]any{
				"type":  claim.Type,
				"value": claim.Value,
			},
			"ticket": map[string]any{
				"scopes":    ticket.GetScopes(),
				"audiences": ticket.GetAudiences(),
				"usage":     ticket.GetUsage(),
			},
		})
		if err != nil {
			log.Warn().Err(err).Msgf("error evaluating expression for claims policy rule '%s'", rule.Name)
			return false
		}
		ok, isBool := out.(bool)
		if !isBool || !ok {
			return false
		}
	}
	return true
}
