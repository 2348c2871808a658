package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

const defaultSOATCategoryName = "Transport"

// SOATService owns vehicles, SOAT policies, payment registration and
// status recomputation.
type SOATService struct {
	db           *sql.DB
	transactions *TransactionService
	notifier     *NotificationService
	bills        *BillService
}

func NewSOATService(db *sql.DB, transactions *TransactionService, notifier *NotificationService, bills *BillService) *SOATService {
	return &SOATService{db: db, transactions: transactions, notifier: notifier, bills: bills}
}

type VehicleInput struct {
	Plate string `json:"plate"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int64  `json:"year"`
}

func (s *SOATService) CreateVehicle(userID int64, in VehicleInput) (*model.Vehicle, error) {
	if in.Plate == "" {
		return nil, model.NewValidationError("plate", "required")
	}
	vehicle := &model.Vehicle{
		UserID: userID,
		Plate:  in.Plate,
		Brand:  in.Brand,
		Model:  in.Model,
		Year:   in.Year,
	}
	if err := vehicle.Create(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a vehicle with this plate already exists", model.ErrConflict)
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *SOATService) UpdateVehicle(userID, id int64, in VehicleInput) (*model.Vehicle, error) {
	vehicle, err := model.GetVehicleByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Plate == "" {
		return nil, model.NewValidationError("plate", "required")
	}
	vehicle.Plate = in.Plate
	vehicle.Brand = in.Brand
	vehicle.Model = in.Model
	vehicle.Year = in.Year
	if err := vehicle.Update(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a vehicle with this plate already exists", model.ErrConflict)
		}
		return nil, err
	}
	return vehicle, nil
}

type SOATInput struct {
	VehicleID       int64  `json:"vehicle_id"`
	Insurer         string `json:"insurer"`
	IssueDate       string `json:"issue_date"`
	ExpiryDate      string `json:"expiry_date"`
	Cost            int64  `json:"cost"`
	AlertDaysBefore int64  `json:"alert_days_before"`
}

func (s *SOATService) validate(userID int64, in SOATInput) error {
	if _, err := model.GetVehicleByID(s.db, userID, in.VehicleID); err != nil {
		if err == model.ErrNotFound {
			return model.NewValidationError("vehicle_id", "vehicle not found")
		}
		return err
	}
	issue, err := time.Parse(model.DateLayout, in.IssueDate)
	if err != nil {
		return model.NewValidationError("issue_date", "invalid date, expected YYYY-MM-DD")
	}
	expiry, err := time.Parse(model.DateLayout, in.ExpiryDate)
	if err != nil {
		return model.NewValidationError("expiry_date", "invalid date, expected YYYY-MM-DD")
	}
	if !expiry.After(issue) {
		return model.NewValidationError("expiry_date", "must be after the issue date")
	}
	if in.Cost <= 0 {
		return model.NewValidationError("cost", "must be positive")
	}
	if in.AlertDaysBefore < 0 {
		return model.NewValidationError("alert_days_before", "must not be negative")
	}
	return nil
}

func (s *SOATService) status(userID int64, isPaid bool, expiryDate string, alertDays int64) (string, error) {
	today := time.Now().In(s.notifier.Location(userID))
	days, err := processors.DaysUntil(expiryDate, today)
	if err != nil {
		return "", err
	}
	return processors.SOATStatus(isPaid, days, alertDays), nil
}

func (s *SOATService) Create(userID int64, in SOATInput) (*model.SOAT, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	status, err := s.status(userID, false, in.ExpiryDate, in.AlertDaysBefore)
	if err != nil {
		return nil, err
	}
	soat := &model.SOAT{
		UserID:          userID,
		VehicleID:       in.VehicleID,
		Insurer:         in.Insurer,
		IssueDate:       in.IssueDate,
		ExpiryDate:      in.ExpiryDate,
		Cost:            in.Cost,
		AlertDaysBefore: in.AlertDaysBefore,
		Status:          status,
	}
	if err := soat.Create(s.db); err != nil {
		return nil, err
	}
	return soat, nil
}

func (s *SOATService) Update(userID, id int64, in SOATInput) (*model.SOAT, error) {
	soat, err := model.GetSOATByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}
	soat.VehicleID = in.VehicleID
	soat.Insurer = in.Insurer
	soat.IssueDate = in.IssueDate
	soat.ExpiryDate = in.ExpiryDate
	soat.Cost = in.Cost
	soat.AlertDaysBefore = in.AlertDaysBefore
	status, err := s.status(userID, soat.IsPaid(), soat.ExpiryDate, soat.AlertDaysBefore)
	if err != nil {
		return nil, err
	}
	soat.Status = status
	if err := soat.Update(s.db); err != nil {
		return nil, err
	}
	return soat, nil
}

// RegisterPayment posts the policy's expense through the transaction
// engine and links it.
func (s *SOATService) RegisterPayment(userID, soatID, accountID int64, date, note string) (*model.SOAT, *model.Transaction, error) {
	soat, err := model.GetSOATByID(s.db, userID, soatID)
	if err != nil {
		return nil, nil, err
	}
	if soat.IsPaid() {
		return nil, nil, fmt.Errorf("%w: SOAT is already paid", model.ErrConflict)
	}

	category, err := s.bills.ensureDefaultCategory(userID, defaultSOATCategoryName)
	if err != nil {
		return nil, nil, err
	}

	vehicle, err := model.GetVehicleByID(s.db, userID, soat.VehicleID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: accountID,
		CategoryID:      &category.ID,
		Date:            date,
		Description:     fmt.Sprintf("SOAT payment %s", vehicle.Plate),
		Note:            note,
		BaseAmount:      &soat.Cost,
	})
	if err != nil {
		return nil, nil, err
	}

	status, err := s.status(userID, true, soat.ExpiryDate, soat.AlertDaysBefore)
	if err != nil {
		return nil, nil, err
	}
	if err := model.UpdateSOATStatus(s.db, userID, soatID, status, &tx.ID); err != nil {
		return nil, nil, err
	}
	soat.Status = status
	soat.PaymentTransactionID = &tx.ID
	return soat, tx, nil
}

// UpdateStatus recomputes and persists the policy status.
func (s *SOATService) UpdateStatus(userID, soatID int64) (*model.SOAT, error) {
	soat, err := model.GetSOATByID(s.db, userID, soatID)
	if err != nil {
		return nil, err
	}
	status, err := s.status(userID, soat.IsPaid(), soat.ExpiryDate, soat.AlertDaysBefore)
	if err != nil {
		return nil, err
	}
	if status != soat.Status {
		if err := model.UpdateSOATStatus(s.db, userID, soatID, status, nil); err != nil {
			return nil, err
		}
		soat.Status = status
	}
	return soat, nil
}

func (s *SOATService) listByStatuses(userID int64, want ...string) ([]model.SOAT, error) {
	soats, err := model.ListSOATs(s.db, userID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[w] = true
	}
	matched := []model.SOAT{}
	for i := range soats {
		updated, err := s.UpdateStatus(userID, soats[i].ID)
		if err != nil {
			continue
		}
		if wanted[updated.Status] {
			matched = append(matched, *updated)
		}
	}
	return matched, nil
}

// ExpiringSoon lists policies inside their alert window.
func (s *SOATService) ExpiringSoon(userID int64) ([]model.SOAT, error) {
	return s.listByStatuses(userID, model.SOATStatusPorVencer, model.SOATStatusPendientePago)
}

// Expired lists policies past their expiry date.
func (s *SOATService) Expired(userID int64) ([]model.SOAT, error) {
	return s.listByStatuses(userID, model.SOATStatusVencido, model.SOATStatusAtrasado)
}
