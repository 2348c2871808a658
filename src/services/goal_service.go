package services

import (
	"database/sql"
	"time"

	"github.com/username/finanzas/backend/src/model"
)

// GoalService owns goal CRUD and the tracker that credits saved_amount
// from saving transactions.
type GoalService struct {
	db *sql.DB
}

func NewGoalService(db *sql.DB) *GoalService {
	return &GoalService{db: db}
}

type GoalInput struct {
	Name         string  `json:"name"`
	TargetAmount int64   `json:"target_amount"`
	Currency     string  `json:"currency"`
	DueDate      *string `json:"due_date"`
	Description  string  `json:"description"`
}

func validateGoalInput(in GoalInput) error {
	if in.Name == "" {
		return model.NewValidationError("name", "required")
	}
	if in.TargetAmount <= 0 {
		return model.NewValidationError("target_amount", "must be positive")
	}
	if in.Currency == "" {
		return model.NewValidationError("currency", "required")
	}
	if in.DueDate != nil {
		if _, err := time.Parse(model.DateLayout, *in.DueDate); err != nil {
			return model.NewValidationError("due_date", "invalid date, expected YYYY-MM-DD")
		}
	}
	return nil
}

func (s *GoalService) Create(userID int64, in GoalInput) (*model.Goal, error) {
	if err := validateGoalInput(in); err != nil {
		return nil, err
	}
	goal := &model.Goal{
		UserID:       userID,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		Currency:     in.Currency,
		DueDate:      in.DueDate,
		Description:  in.Description,
	}
	if err := goal.Create(s.db); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Update(userID, id int64, in GoalInput) (*model.Goal, error) {
	goal, err := model.GetGoalByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateGoalInput(in); err != nil {
		return nil, err
	}
	goal.Name = in.Name
	goal.TargetAmount = in.TargetAmount
	goal.Currency = in.Currency
	goal.DueDate = in.DueDate
	goal.Description = in.Description
	if err := goal.Update(s.db); err != nil {
		return nil, err
	}
	return goal, nil
}

// Name implements EventHandler.
func (s *GoalService) Name() string { return "goal_tracker" }

// Handle credits saved_amount for saving transactions with a goal, and
// reverses the credit when such a transaction goes away. An update is a
// debit of the pre-image followed by a credit of the new state.
func (s *GoalService) Handle(event TransactionEvent) error {
	debit := func(tx *model.Transaction) error {
		if tx == nil || tx.Type != model.TransactionTypeSaving || tx.GoalID == nil {
			return nil
		}
		err := model.AdjustGoalSavedAmount(s.db, tx.UserID, *tx.GoalID, -tx.BaseAmount)
		if err == model.ErrNotFound {
			return nil
		}
		return err
	}
	credit := func(tx *model.Transaction) error {
		if tx == nil || tx.Type != model.TransactionTypeSaving || tx.GoalID == nil {
			return nil
		}
		err := model.AdjustGoalSavedAmount(s.db, tx.UserID, *tx.GoalID, tx.BaseAmount)
		if err == model.ErrNotFound {
			return nil
		}
		return err
	}

	switch event.Action {
	case EventCreated:
		return credit(event.Tx)
	case EventDeleted:
		return debit(event.Tx)
	case EventUpdated:
		if err := debit(event.Prev); err != nil {
			return err
		}
		return credit(event.Tx)
	}
	return nil
}
