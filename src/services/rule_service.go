package services

import (
	"database/sql"
	"fmt"

	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

// RuleService owns classification rule CRUD, preview and reordering.
type RuleService struct {
	db *sql.DB
}

func NewRuleService(db *sql.DB) *RuleService {
	return &RuleService{db: db}
}

type RuleInput struct {
	Name                  string  `json:"name"`
	CriteriaType          string  `json:"criteria_type"`
	Keyword               *string `json:"keyword"`
	TargetTransactionType *int64  `json:"target_transaction_type"`
	ActionType            string  `json:"action_type"`
	TargetCategoryID      *int64  `json:"target_category_id"`
	TargetTag             *string `json:"target_tag"`
	Order                 int64   `json:"order"`
}

// validate enforces that criteria and action payloads match their tags.
func (s *RuleService) validate(userID int64, in RuleInput) error {
	if in.Name == "" {
		return model.NewValidationError("name", "required")
	}
	switch in.CriteriaType {
	case model.RuleCriteriaDescriptionContains:
		if in.Keyword == nil || *in.Keyword == "" {
			return model.NewValidationError("keyword", "required for description criteria")
		}
	case model.RuleCriteriaTransactionType:
		if in.TargetTransactionType == nil || !model.ValidTransactionType(int(*in.TargetTransactionType)) {
			return model.NewValidationError("target_transaction_type", "a valid transaction type is required")
		}
	default:
		return model.NewValidationError("criteria_type", "unknown criteria type")
	}
	switch in.ActionType {
	case model.RuleActionAssignCategory:
		if in.TargetCategoryID == nil {
			return model.NewValidationError("target_category_id", "required for category action")
		}
		if _, err := model.GetCategoryByID(s.db, userID, *in.TargetCategoryID); err != nil {
			if err == model.ErrNotFound {
				return model.NewValidationError("target_category_id", "category not found")
			}
			return err
		}
	case model.RuleActionAssignTag:
		if in.TargetTag == nil || *in.TargetTag == "" {
			return model.NewValidationError("target_tag", "required for tag action")
		}
	default:
		return model.NewValidationError("action_type", "unknown action type")
	}
	return nil
}

func (s *RuleService) Create(userID int64, in RuleInput) (*model.Rule, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	rule := &model.Rule{
		UserID:                userID,
		Name:                  in.Name,
		CriteriaType:          in.CriteriaType,
		Keyword:               in.Keyword,
		TargetTransactionType: in.TargetTransactionType,
		ActionType:            in.ActionType,
		TargetCategoryID:      in.TargetCategoryID,
		TargetTag:             in.TargetTag,
		IsActive:              true,
		Order:                 in.Order,
	}
	if err := rule.Create(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a rule with this name already exists", model.ErrConflict)
		}
		return nil, err
	}
	return rule, nil
}

func (s *RuleService) Update(userID, id int64, in RuleInput) (*model.Rule, error) {
	rule, err := model.GetRuleByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	rule.Name = in.Name
	rule.CriteriaType = in.CriteriaType
	rule.Keyword = in.Keyword
	rule.TargetTransactionType = in.TargetTransactionType
	rule.ActionType = in.ActionType
	rule.TargetCategoryID = in.TargetCategoryID
	rule.TargetTag = in.TargetTag
	rule.Order = in.Order
	if err := rule.Update(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a rule with this name already exists", model.ErrConflict)
		}
		return nil, err
	}
	return rule, nil
}

func (s *RuleService) ToggleActive(userID, id int64) (*model.Rule, error) {
	rule, err := model.GetRuleByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	rule.IsActive = !rule.IsActive
	if err := rule.Update(s.db); err != nil {
		return nil, err
	}
	return rule, nil
}

// PreviewResult is the dry-run answer: which rule would fire, if any.
type PreviewResult struct {
	WillApply  bool    `json:"will_apply"`
	RuleID     *int64  `json:"rule_id,omitempty"`
	RuleName   string  `json:"rule_name,omitempty"`
	ActionType string  `json:"action_type,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
	Tag        *string `json:"tag,omitempty"`
}

// Preview runs the same match as transaction creation without touching
// anything.
func (s *RuleService) Preview(userID int64, description string, txType int) (*PreviewResult, error) {
	rules, err := model.ListRules(s.db, userID, true)
	if err != nil {
		return nil, err
	}
	winner := processors.MatchRule(rules, description, txType)
	if winner == nil {
		return &PreviewResult{}, nil
	}
	return &PreviewResult{
		WillApply:  true,
		RuleID:     &winner.ID,
		RuleName:   winner.Name,
		ActionType: winner.ActionType,
		CategoryID: winner.TargetCategoryID,
		Tag:        winner.TargetTag,
	}, nil
}

// RuleOrder is one entry of a reorder request.
type RuleOrder struct {
	ID    int64 `json:"id"`
	Order int64 `json:"order"`
}

// Reorder updates rule priorities atomically. Ids that do not belong to
// the user are ignored.
func (s *RuleService) Reorder(userID int64, orders []RuleOrder) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	for _, o := range orders {
		if _, err := dbTx.Exec(`UPDATE rules SET rule_order = ? WHERE id = ? AND user_id = ?`, o.Order, o.ID, userID); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

// AppliedTransactions lists the transactions a rule classified.
func (s *RuleService) AppliedTransactions(userID, ruleID int64) ([]model.Transaction, error) {
	if _, err := model.GetRuleByID(s.db, userID, ruleID); err != nil {
		return nil, err
	}
	return model.ListTransactions(s.db, userID, model.TransactionFilter{RuleID: ruleID})
}
