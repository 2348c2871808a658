package model

import (
	"database/sql"
	"time"
)

// SOAT status values keep the Spanish terms used on the policy documents.
const (
	SOATStatusVigente       = "vigente"
	SOATStatusPorVencer     = "por_vencer"
	SOATStatusVencido       = "vencido"
	SOATStatusPendientePago = "pendiente_pago"
	SOATStatusAtrasado      = "atrasado"
)

type Vehicle struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Year      int64     `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

type SOAT struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	VehicleID            int64     `json:"vehicle_id"`
	Insurer              string    `json:"insurer"`
	IssueDate            string    `json:"issue_date"`
	ExpiryDate           string    `json:"expiry_date"`
	Cost                 int64     `json:"cost"`
	AlertDaysBefore      int64     `json:"alert_days_before"`
	Status               string    `json:"status"`
	PaymentTransactionID *int64    `json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (s *SOAT) IsPaid() bool {
	return s.PaymentTransactionID != nil
}

func (v *Vehicle) Create(db *sql.DB) error {
	res, err := db.Exec(`INSERT INTO vehicles (user_id, plate, brand, model, year) VALUES (?, ?, ?, ?, ?)`,
		v.UserID, v.Plate, v.Brand, v.Model, v.Year)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func GetVehicleByID(db *sql.DB, userID, id int64) (*Vehicle, error) {
	row := db.QueryRow(`SELECT id, user_id, plate, brand, model, year, created_at FROM vehicles WHERE id = ? AND user_id = ?`, id, userID)
	var v Vehicle
	err := row.Scan(&v.ID, &v.UserID, &v.Plate, &v.Brand, &v.Model, &v.Year, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func ListVehicles(db *sql.DB, userID int64) ([]Vehicle, error) {
	rows, err := db.Query(`SELECT id, user_id, plate, brand, model, year, created_at FROM vehicles WHERE user_id = ? ORDER BY plate ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.Plate, &v.Brand, &v.Model, &v.Year, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	return vehicles, nil
}

func (v *Vehicle) Update(db *sql.DB) error {
	res, err := db.Exec(`UPDATE vehicles SET plate = ?, brand = ?, model = ?, year = ? WHERE id = ? AND user_id = ?`,
		v.Plate, v.Brand, v.Model, v.Year, v.ID, v.UserID)
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

func DeleteVehicle(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`DELETE FROM vehicles WHERE id = ? AND user_id = ?`, id, userID)
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

const soatColumns = `id, user_id, vehicle_id, insurer, issue_date, expiry_date, cost, alert_days_before, status, payment_transaction_id, created_at, updated_at`

func scanSOAT(row interface{ Scan(...any) error }) (*SOAT, error) {
	var s SOAT
	err := row.Scan(&s.ID, &s.UserID, &s.VehicleID, &s.Insurer, &s.IssueDate, &s.ExpiryDate,
		&s.Cost, &s.AlertDaysBefore, &s.Status, &s.PaymentTransactionID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (s *SOAT) Create(db *sql.DB) error {
	res, err := db.Exec(`
	INSERT INTO soats (user_id, vehicle_id, insurer, issue_date, expiry_date, cost, alert_days_before, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.VehicleID, s.Insurer, s.IssueDate, s.ExpiryDate, s.Cost, s.AlertDaysBefore, s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func GetSOATByID(db *sql.DB, userID, id int64) (*SOAT, error) {
	row := db.QueryRow(`SELECT `+soatColumns+` FROM soats WHERE id = ? AND user_id = ?`, id, userID)
	return scanSOAT(row)
}

func ListSOATs(db *sql.DB, userID int64) ([]SOAT, error) {
	rows, err := db.Query(`SELECT `+soatColumns+` FROM soats WHERE user_id = ? ORDER BY expiry_date ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var soats []SOAT
	for rows.Next() {
		s, err := scanSOAT(rows)
		if err != nil {
			return nil, err
		}
		soats = append(soats, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if soats == nil {
		soats = []SOAT{}
	}
	return soats, nil
}

// ListAllSOATs returns every SOAT across users for the reminder scan.
func ListAllSOATs(db *sql.DB) ([]SOAT, error) {
	rows, err := db.Query(`SELECT ` + soatColumns + ` FROM soats ORDER BY user_id, expiry_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var soats []SOAT
	for rows.Next() {
		s, err := scanSOAT(rows)
		if err != nil {
			return nil, err
		}
		soats = append(soats, *s)
	}
	return soats, rows.Err()
}

func (s *SOAT) Update(db *sql.DB) error {
	res, err := db.Exec(`
	UPDATE soats SET insurer = ?, issue_date = ?, expiry_date = ?, cost = ?, alert_days_before = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		s.Insurer, s.IssueDate, s.ExpiryDate, s.Cost, s.AlertDaysBefore, s.Status, s.ID, s.UserID)
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

// UpdateSOATStatus persists a recomputed status, and the payment link when set.
func UpdateSOATStatus(db *sql.DB, userID, id int64, status string, paymentTransactionID *int64) error {
	res, err := db.Exec(`
	UPDATE soats SET status = ?, payment_transaction_id = COALESCE(?, payment_transaction_id), updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		status, paymentTransactionID, id, userID)
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

func DeleteSOAT(db *sql.DB, userID, id int64) error {
	if _, err := db.Exec(`DELETE FROM soat_alerts WHERE soat_id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM soats WHERE id = ? AND user_id = ?`, id, userID)
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

// GetSOATByPaymentTransaction returns the SOAT linked to a payment
// transaction, or ErrNotFound.
func GetSOATByPaymentTransaction(db *sql.DB, userID, transactionID int64) (*SOAT, error) {
	row := db.QueryRow(`SELECT `+soatColumns+` FROM soats WHERE payment_transaction_id = ? AND user_id = ?`, transactionID, userID)
	return scanSOAT(row)
}

// ClearSOATPayment unlinks a deleted payment transaction and resets the
// status to the given unpaid value.
func ClearSOATPayment(db *sql.DB, userID, id int64, status string) error {
	res, err := db.Exec(`UPDATE soats SET payment_transaction_id = NULL, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		status, id, userID)
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
