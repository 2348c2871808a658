package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

// BudgetService owns budget CRUD and the threshold evaluator that runs
// on every committed transaction event.
type BudgetService struct {
	db       *sql.DB
	notifier *NotificationService
}

func NewBudgetService(db *sql.DB, notifier *NotificationService) *BudgetService {
	return &BudgetService{db: db, notifier: notifier}
}

type BudgetInput struct {
	CategoryID      int64  `json:"category_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	CalculationMode string `json:"calculation_mode"`
	Period          string `json:"period"`
	StartDate       string `json:"start_date"`
	AlertThreshold  int64  `json:"alert_threshold"`
}

func (s *BudgetService) validate(userID int64, in BudgetInput) error {
	category, err := model.GetCategoryByID(s.db, userID, in.CategoryID)
	if err != nil {
		if err == model.ErrNotFound {
			return model.NewValidationError("category_id", "category not found")
		}
		return err
	}
	if category.Type != model.CategoryTypeExpense {
		return model.NewValidationError("category_id", "budgets only apply to expense categories")
	}
	if in.Amount <= 0 {
		return model.NewValidationError("amount", "must be positive")
	}
	if in.Currency == "" {
		return model.NewValidationError("currency", "required")
	}
	if !model.ValidBudgetMode(in.CalculationMode) {
		return model.NewValidationError("calculation_mode", "must be base or total")
	}
	if !model.ValidBudgetPeriod(in.Period) {
		return model.NewValidationError("period", "must be monthly or yearly")
	}
	if _, err := time.Parse(model.DateLayout, in.StartDate); err != nil {
		return model.NewValidationError("start_date", "invalid date, expected YYYY-MM-DD")
	}
	if in.AlertThreshold < 0 || in.AlertThreshold > 100 {
		return model.NewValidationError("alert_threshold", "must be between 0 and 100")
	}
	return nil
}

func (s *BudgetService) Create(userID int64, in BudgetInput) (*model.Budget, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	budget := &model.Budget{
		UserID:          userID,
		CategoryID:      in.CategoryID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		CalculationMode: in.CalculationMode,
		Period:          in.Period,
		StartDate:       in.StartDate,
		AlertThreshold:  in.AlertThreshold,
		IsActive:        true,
	}
	if err := budget.Create(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a budget for this category, period and currency already exists", model.ErrConflict)
		}
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) Update(userID, id int64, in BudgetInput) (*model.Budget, error) {
	budget, err := model.GetBudgetByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	budget.CategoryID = in.CategoryID
	budget.Amount = in.Amount
	budget.Currency = in.Currency
	budget.CalculationMode = in.CalculationMode
	budget.Period = in.Period
	budget.StartDate = in.StartDate
	budget.AlertThreshold = in.AlertThreshold
	if err := budget.Update(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a budget for this category, period and currency already exists", model.ErrConflict)
		}
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) ToggleActive(userID, id int64) (*model.Budget, error) {
	budget, err := model.GetBudgetByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	budget.IsActive = !budget.IsActive
	if err := budget.Update(s.db); err != nil {
		return nil, err
	}
	return budget, nil
}

// Name implements EventHandler.
func (s *BudgetService) Name() string { return "budget_evaluator" }

// Handle evaluates the thresholds of every budget watching the
// transaction's category. Alerts are never retracted on delete or on a
// downward update, so only the posted state is evaluated.
func (s *BudgetService) Handle(event TransactionEvent) error {
	if event.Action == EventDeleted {
		return nil
	}
	tx := event.Tx
	if tx.Type != model.TransactionTypeExpense || tx.CategoryID == nil {
		return nil
	}

	origin, err := model.GetAccountByID(s.db, tx.UserID, tx.OriginAccountID)
	if err != nil {
		return fmt.Errorf("loading origin account: %w", err)
	}
	budgets, err := model.ListBudgetsForCategory(s.db, tx.UserID, *tx.CategoryID, origin.Currency)
	if err != nil {
		return fmt.Errorf("loading budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil
	}

	txDate, err := time.Parse(model.DateLayout, tx.Date)
	if err != nil {
		return fmt.Errorf("parsing transaction date: %w", err)
	}

	for i := range budgets {
		if err := s.evaluate(&budgets[i], tx, txDate); err != nil {
			logger.L.Error("budget evaluation failed", "budgetID", budgets[i].ID, "transactionID", tx.ID, "error", err)
		}
	}
	return nil
}

func (s *BudgetService) evaluate(budget *model.Budget, tx *model.Transaction, txDate time.Time) error {
	if tx.Date < budget.StartDate {
		return nil
	}
	from, to, err := processors.PeriodWindow(budget.Period, budget.StartDate, txDate)
	if err != nil {
		return err
	}
	spent, err := model.SumCategoryExpenses(s.db, budget.UserID, budget.CategoryID, budget.Currency,
		from.Format(model.DateLayout), to.Format(model.DateLayout), budget.CalculationMode)
	if err != nil {
		return err
	}

	percentage := processors.BudgetPercentage(spent, budget.Amount)
	kind := processors.DesiredAlertType(percentage, budget.AlertThreshold)
	if kind == "" {
		return nil
	}

	alert := &model.Alert{
		UserID:     budget.UserID,
		BudgetID:   budget.ID,
		AlertType:  kind,
		Year:       txDate.Year(),
		Month:      int(txDate.Month()),
		Percentage: percentage,
		Spent:      spent,
		Message:    alertMessage(kind, percentage),
	}
	inserted, err := model.InsertAlertIfAbsent(s.db, alert)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	s.notifier.Notify(budget.UserID, NotificationKindBudgetAlert, "budget", budget.ID,
		"Budget "+kind, alert.Message)
	return nil
}

func alertMessage(kind string, percentage float64) string {
	if kind == model.AlertTypeExceeded {
		return fmt.Sprintf("Budget exceeded: %.2f%% of the limit spent", percentage)
	}
	return fmt.Sprintf("Budget warning: %.2f%% of the limit spent", percentage)
}

// BudgetStat is one budget with its current-window consumption.
type BudgetStat struct {
	Budget     model.Budget `json:"budget"`
	Spent      int64        `json:"spent"`
	Remaining  int64        `json:"remaining"`
	Percentage float64      `json:"percentage"`
	AlertKind  string       `json:"alert_kind,omitempty"`
}

func (s *BudgetService) stat(budget *model.Budget, asOf time.Time) (*BudgetStat, error) {
	from, to, err := processors.PeriodWindow(budget.Period, budget.StartDate, asOf)
	if err != nil {
		return nil, err
	}
	spent, err := model.SumCategoryExpenses(s.db, budget.UserID, budget.CategoryID, budget.Currency,
		from.Format(model.DateLayout), to.Format(model.DateLayout), budget.CalculationMode)
	if err != nil {
		return nil, err
	}
	percentage := processors.BudgetPercentage(spent, budget.Amount)
	return &BudgetStat{
		Budget:     *budget,
		Spent:      spent,
		Remaining:  budget.Amount - spent,
		Percentage: percentage,
		AlertKind:  processors.DesiredAlertType(percentage, budget.AlertThreshold),
	}, nil
}

// Stats returns the consumption of every active budget as of now in the
// user's timezone.
func (s *BudgetService) Stats(userID int64) ([]BudgetStat, error) {
	budgets, err := model.ListBudgets(s.db, userID, true)
	if err != nil {
		return nil, err
	}
	now := time.Now().In(s.notifier.Location(userID))
	stats := []BudgetStat{}
	for i := range budgets {
		stat, err := s.stat(&budgets[i], now)
		if err != nil {
			logger.L.Error("budget stat failed", "budgetID", budgets[i].ID, "error", err)
			continue
		}
		stats = append(stats, *stat)
	}
	return stats, nil
}

// MonthlySummary evaluates every active budget against one calendar
// month.
func (s *BudgetService) MonthlySummary(userID int64, year, month int) ([]BudgetStat, error) {
	if month < 1 || month > 12 {
		return nil, model.NewValidationError("month", "must be between 1 and 12")
	}
	asOf := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	budgets, err := model.ListBudgets(s.db, userID, true)
	if err != nil {
		return nil, err
	}
	stats := []BudgetStat{}
	for i := range budgets {
		stat, err := s.stat(&budgets[i], asOf)
		if err != nil {
			logger.L.Error("budget stat failed", "budgetID", budgets[i].ID, "error", err)
			continue
		}
		stats = append(stats, *stat)
	}
	return stats, nil
}

// CategoriesWithoutBudget lists active expense categories no active
// budget watches.
func (s *BudgetService) CategoriesWithoutBudget(userID int64) ([]model.Category, error) {
	categories, err := model.ListCategories(s.db, userID, model.CategoryTypeExpense)
	if err != nil {
		return nil, err
	}
	budgets, err := model.ListBudgets(s.db, userID, true)
	if err != nil {
		return nil, err
	}
	covered := make(map[int64]bool, len(budgets))
	for _, b := range budgets {
		covered[b.CategoryID] = true
	}
	uncovered := []model.Category{}
	for _, c := range categories {
		if !covered[c.ID] {
			uncovered = append(uncovered, c)
		}
	}
	return uncovered, nil
}
