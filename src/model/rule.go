package model

import (
	"database/sql"
	"time"
)

const (
	RuleCriteriaDescriptionContains = "description_contains"
	RuleCriteriaTransactionType     = "transaction_type"

	RuleActionAssignCategory = "assign_category"
	RuleActionAssignTag      = "assign_tag"
)

type Rule struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user_id"`
	Name                  string    `json:"name"`
	CriteriaType          string    `json:"criteria_type"`
	Keyword               *string   `json:"keyword,omitempty"`
	TargetTransactionType *int64    `json:"target_transaction_type,omitempty"`
	ActionType            string    `json:"action_type"`
	TargetCategoryID      *int64    `json:"target_category_id,omitempty"`
	TargetTag             *string   `json:"target_tag,omitempty"`
	IsActive              bool      `json:"is_active"`
	Order                 int64     `json:"order"`
	CreatedAt             time.Time `json:"created_at"`
}

const ruleColumns = `id, user_id, name, criteria_type, keyword, target_transaction_type, action_type, target_category_id, target_tag, is_active, rule_order, created_at`

func scanRule(row interface{ Scan(...any) error }) (*Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.CriteriaType, &r.Keyword, &r.TargetTransactionType,
		&r.ActionType, &r.TargetCategoryID, &r.TargetTag, &r.IsActive, &r.Order, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *Rule) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO rules (user_id, name, criteria_type, keyword, target_transaction_type, action_type, target_category_id, target_tag, is_active, rule_order)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Name, r.CriteriaType, r.Keyword, r.TargetTransactionType,
		r.ActionType, r.TargetCategoryID, r.TargetTag, r.IsActive, r.Order)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

func GetRuleByID(db *sql.DB, userID, id int64) (*Rule, error) {
	row := db.QueryRow(`SELECT `+ruleColumns+` FROM rules WHERE id = ? AND user_id = ?`, id, userID)
	return scanRule(row)
}

// ListRules returns the user's rules in evaluation order: rule_order
// ascending, ties broken by creation time.
func ListRules(db *sql.DB, userID int64, activeOnly bool) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY rule_order ASC, created_at ASC, id ASC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

func (r *Rule) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE rules SET name = ?, criteria_type = ?, keyword = ?, target_transaction_type = ?,
		action_type = ?, target_category_id = ?, target_tag = ?, is_active = ?, rule_order = ?
	WHERE id = ? AND user_id = ?`,
		r.Name, r.CriteriaType, r.Keyword, r.TargetTransactionType,
		r.ActionType, r.TargetCategoryID, r.TargetTag, r.IsActive, r.Order, r.ID, r.UserID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRule removes a rule and nullifies applied_rule on referencing
// transactions. History is preserved; nothing is reclassified.
func DeleteRule(db *sql.DB, userID, id int64) error {
	if _, err := db.Exec(`UPDATE transactions SET applied_rule_id = NULL WHERE applied_rule_id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM rules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
