package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

const defaultBillCategoryName = "Services"

// BillService owns bill CRUD, payment registration through the
// transaction engine, and status recomputation.
type BillService struct {
	db           *sql.DB
	transactions *TransactionService
	notifier     *NotificationService
}

func NewBillService(db *sql.DB, transactions *TransactionService, notifier *NotificationService) *BillService {
	return &BillService{db: db, transactions: transactions, notifier: notifier}
}

type BillInput struct {
	Provider           string `json:"provider"`
	Amount             int64  `json:"amount"`
	DueDate            string `json:"due_date"`
	SuggestedAccountID *int64 `json:"suggested_account_id"`
	CategoryID         *int64 `json:"category_id"`
	ReminderDaysBefore int64  `json:"reminder_days_before"`
	IsRecurring        bool   `json:"is_recurring"`
}

func (s *BillService) validate(userID int64, in BillInput) error {
	if in.Provider == "" {
		return model.NewValidationError("provider", "required")
	}
	if in.Amount <= 0 {
		return model.NewValidationError("amount", "must be positive")
	}
	if _, err := time.Parse(model.DateLayout, in.DueDate); err != nil {
		return model.NewValidationError("due_date", "invalid date, expected YYYY-MM-DD")
	}
	if in.ReminderDaysBefore < 0 {
		return model.NewValidationError("reminder_days_before", "must not be negative")
	}
	if in.SuggestedAccountID != nil {
		if _, err := model.GetAccountByID(s.db, userID, *in.SuggestedAccountID); err != nil {
			if err == model.ErrNotFound {
				return model.NewValidationError("suggested_account_id", "account not found")
			}
			return err
		}
	}
	if in.CategoryID != nil {
		category, err := model.GetCategoryByID(s.db, userID, *in.CategoryID)
		if err != nil {
			if err == model.ErrNotFound {
				return model.NewValidationError("category_id", "category not found")
			}
			return err
		}
		if category.Type != model.CategoryTypeExpense {
			return model.NewValidationError("category_id", "bill category must be an expense category")
		}
	}
	return nil
}

func (s *BillService) Create(userID int64, in BillInput) (*model.Bill, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	today := time.Now().In(s.notifier.Location(userID))
	status, err := processors.BillStatus(false, in.DueDate, today)
	if err != nil {
		return nil, err
	}
	bill := &model.Bill{
		UserID:             userID,
		Provider:           in.Provider,
		Amount:             in.Amount,
		DueDate:            in.DueDate,
		SuggestedAccountID: in.SuggestedAccountID,
		CategoryID:         in.CategoryID,
		ReminderDaysBefore: in.ReminderDaysBefore,
		IsRecurring:        in.IsRecurring,
		Status:             status,
	}
	if err := bill.Create(s.db); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *BillService) Update(userID, id int64, in BillInput) (*model.Bill, error) {
	bill, err := model.GetBillByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	bill.Provider = in.Provider
	bill.Amount = in.Amount
	bill.DueDate = in.DueDate
	bill.SuggestedAccountID = in.SuggestedAccountID
	bill.CategoryID = in.CategoryID
	bill.ReminderDaysBefore = in.ReminderDaysBefore
	bill.IsRecurring = in.IsRecurring
	if !bill.IsPaid() {
		today := time.Now().In(s.notifier.Location(userID))
		status, err := processors.BillStatus(false, bill.DueDate, today)
		if err != nil {
			return nil, err
		}
		bill.Status = status
	}
	if err := bill.Update(s.db); err != nil {
		return nil, err
	}
	return bill, nil
}

// RegisterPayment posts the bill's expense through the transaction
// engine and links it. Paying an already-paid bill is a conflict.
func (s *BillService) RegisterPayment(userID, billID, accountID int64, date, note string) (*model.Bill, *model.Transaction, error) {
	bill, err := model.GetBillByID(s.db, userID, billID)
	if err != nil {
		return nil, nil, err
	}
	if bill.IsPaid() {
		return nil, nil, fmt.Errorf("%w: bill is already paid", model.ErrConflict)
	}

	categoryID := bill.CategoryID
	if categoryID == nil {
		category, err := s.ensureDefaultCategory(userID, defaultBillCategoryName)
		if err != nil {
			return nil, nil, err
		}
		categoryID = &category.ID
	}

	tx, err := s.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: accountID,
		CategoryID:      categoryID,
		Date:            date,
		Description:     fmt.Sprintf("%s bill payment", bill.Provider),
		Note:            note,
		BaseAmount:      &bill.Amount,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := model.UpdateBillStatus(s.db, userID, billID, model.BillStatusPaid, &tx.ID); err != nil {
		return nil, nil, err
	}
	bill.Status = model.BillStatusPaid
	bill.PaymentTransactionID = &tx.ID
	return bill, tx, nil
}

// ensureDefaultCategory finds or creates a default expense category.
func (s *BillService) ensureDefaultCategory(userID int64, name string) (*model.Category, error) {
	name = model.NormalizeCategoryName(name)
	categories, err := model.ListCategories(s.db, userID, model.CategoryTypeExpense)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].Name == name {
			return &categories[i], nil
		}
	}
	category := &model.Category{
		UserID:    userID,
		Name:      name,
		Type:      model.CategoryTypeExpense,
		IsDefault: true,
		IsActive:  true,
	}
	if err := category.Create(s.db); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateStatus recomputes and persists the bill's status for today in
// the user's timezone.
func (s *BillService) UpdateStatus(userID, billID int64) (*model.Bill, error) {
	bill, err := model.GetBillByID(s.db, userID, billID)
	if err != nil {
		return nil, err
	}
	today := time.Now().In(s.notifier.Location(userID))
	status, err := processors.BillStatus(bill.IsPaid(), bill.DueDate, today)
	if err != nil {
		return nil, err
	}
	if status != bill.Status {
		if err := model.UpdateBillStatus(s.db, userID, billID, status, nil); err != nil {
			return nil, err
		}
		bill.Status = status
	}
	return bill, nil
}

// listByStatus recomputes unpaid statuses and filters. Stale statuses
// are persisted as a side effect.
func (s *BillService) listByStatus(userID int64, want string) ([]model.Bill, error) {
	bills, err := model.ListBills(s.db, userID, "")
	if err != nil {
		return nil, err
	}
	today := time.Now().In(s.notifier.Location(userID))
	matched := []model.Bill{}
	for i := range bills {
		b := &bills[i]
		status, err := processors.BillStatus(b.IsPaid(), b.DueDate, today)
		if err != nil {
			logger.L.Warn("bill status recompute failed", "billID", b.ID, "error", err)
			continue
		}
		if status != b.Status {
			if err := model.UpdateBillStatus(s.db, userID, b.ID, status, nil); err != nil {
				logger.L.Warn("bill status persist failed", "billID", b.ID, "error", err)
			}
			b.Status = status
		}
		if b.Status == want {
			matched = append(matched, *b)
		}
	}
	return matched, nil
}

func (s *BillService) Pending(userID int64) ([]model.Bill, error) {
	return s.listByStatus(userID, model.BillStatusPending)
}

func (s *BillService) Overdue(userID int64) ([]model.Bill, error) {
	return s.listByStatus(userID, model.BillStatusOverdue)
}
