package processors

import (
	"strings"

	"github.com/username/finanzas/backend/src/model"
)

// MatchRule returns the first rule in the given evaluation order that
// matches the description and type, or nil. Callers pass rules already
// sorted by (order asc, created_at asc); inactive rules must be filtered
// out before calling.
func MatchRule(rules []model.Rule, description string, txType int) *model.Rule {
	for i := range rules {
		if ruleMatches(&rules[i], description, txType) {
			return &rules[i]
		}
	}
	return nil
}

func ruleMatches(r *model.Rule, description string, txType int) bool {
	switch r.CriteriaType {
	case model.RuleCriteriaDescriptionContains:
		if r.Keyword == nil || *r.Keyword == "" || description == "" {
			return false
		}
		return strings.Contains(strings.ToLower(description), strings.ToLower(*r.Keyword))
	case model.RuleCriteriaTransactionType:
		return r.TargetTransactionType != nil && int(*r.TargetTransactionType) == txType
	default:
		return false
	}
}
