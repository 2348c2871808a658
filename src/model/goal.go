package model

import (
	"database/sql"
	"time"
)

type Goal struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	TargetAmount int64     `json:"target_amount"`
	SavedAmount  int64     `json:"saved_amount"`
	Currency     string    `json:"currency"`
	DueDate      *string   `json:"due_date,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// Completed is derived; saved_amount may exceed target.
func (g *Goal) Completed() bool {
	return g.SavedAmount >= g.TargetAmount
}

const goalColumns = `id, user_id, name, target_amount, saved_amount, currency, due_date, description, created_at`

func scanGoal(row interface{ Scan(...any) error }) (*Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount,
		&g.Currency, &g.DueDate, &g.Description, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (g *Goal) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO goals (user_id, name, target_amount, saved_amount, currency, due_date, description)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.TargetAmount, g.SavedAmount, g.Currency, g.DueDate, g.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

func GetGoalByID(db *sql.DB, userID, id int64) (*Goal, error) {
	row := db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func ListGoals(db *sql.DB, userID int64) ([]Goal, error) {
	rows, err := db.Query(`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []Goal{}
	}
	return goals, nil
}

func (g *Goal) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE goals SET name = ?, target_amount = ?, currency = ?, due_date = ?, description = ?
	WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount, g.Currency, g.DueDate, g.Description, g.ID, g.UserID)
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

func DeleteGoal(db *sql.DB, userID, id int64) error {
	if _, err := db.Exec(`UPDATE transactions SET goal_id = NULL WHERE goal_id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
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

// AdjustGoalSavedAmount applies a signed delta to saved_amount. Callers
// pass the negative of the original credit to reverse it.
func AdjustGoalSavedAmount(db *sql.DB, userID, id, delta int64) error {
	res, err := db.Exec(`UPDATE goals SET saved_amount = saved_amount + ? WHERE id = ? AND user_id = ?`, delta, id, userID)
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
