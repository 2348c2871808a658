package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func seedVehicle(t *testing.T, e *testEngine, userID int64, plate string) *model.Vehicle {
	t.Helper()
	vehicle, err := e.soats.CreateVehicle(userID, VehicleInput{
		Plate: plate,
		Brand: "Renault",
		Model: "Logan",
		Year:  2020,
	})
	require.NoError(t, err)
	return vehicle
}

func seedSOAT(t *testing.T, e *testEngine, userID, vehicleID int64, expiryDays int, alertDays int64) *model.SOAT {
	t.Helper()
	soat, err := e.soats.Create(userID, SOATInput{
		VehicleID:       vehicleID,
		Insurer:         "Sura",
		IssueDate:       bogotaDate(t, expiryDays-365),
		ExpiryDate:      bogotaDate(t, expiryDays),
		Cost:            600000,
		AlertDaysBefore: alertDays,
	})
	require.NoError(t, err)
	return soat
}

func TestSOATStatusDerivedOnCreate(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	vehicle := seedVehicle(t, e, userID, "ABC123")

	require.Equal(t, model.SOATStatusVigente, seedSOAT(t, e, userID, vehicle.ID, 90, 30).Status)
	require.Equal(t, model.SOATStatusPendientePago, seedSOAT(t, e, userID, vehicle.ID, 10, 30).Status)
	require.Equal(t, model.SOATStatusAtrasado, seedSOAT(t, e, userID, vehicle.ID, -5, 30).Status)
}

func TestDuplicatePlateRejected(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	seedVehicle(t, e, userID, "ABC123")

	_, err := e.soats.CreateVehicle(userID, VehicleInput{Plate: "ABC123"})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestSOATPaymentCreatesTransportExpense(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	vehicle := seedVehicle(t, e, userID, "XYZ789")
	soat := seedSOAT(t, e, userID, vehicle.ID, 10, 30)

	paid, tx, err := e.soats.RegisterPayment(userID, soat.ID, bank.ID, bogotaDate(t, 0), "renewal")
	require.NoError(t, err)
	require.Equal(t, model.SOATStatusPorVencer, paid.Status)
	require.NotNil(t, paid.PaymentTransactionID)
	require.Equal(t, "SOAT payment XYZ789", tx.Description)

	// Cost 600000 plus the 4x1000 levy.
	require.Equal(t, int64(602400), tx.TotalAmount)
	require.Equal(t, int64(10000000-602400), accountBalance(t, e.db, userID, bank.ID))

	require.NotNil(t, tx.CategoryID)
	category, err := model.GetCategoryByID(e.db, userID, *tx.CategoryID)
	require.NoError(t, err)
	require.Equal(t, "Transport", category.Name)

	_, _, err = e.soats.RegisterPayment(userID, soat.ID, bank.ID, bogotaDate(t, 0), "")
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestDeletingSOATPaymentReverts(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	vehicle := seedVehicle(t, e, userID, "XYZ789")
	soat := seedSOAT(t, e, userID, vehicle.ID, 10, 30)

	_, tx, err := e.soats.RegisterPayment(userID, soat.ID, bank.ID, bogotaDate(t, 0), "")
	require.NoError(t, err)

	require.NoError(t, e.transactions.Delete(userID, tx.ID))

	reverted, err := model.GetSOATByID(e.db, userID, soat.ID)
	require.NoError(t, err)
	require.Equal(t, model.SOATStatusPendientePago, reverted.Status)
	require.Nil(t, reverted.PaymentTransactionID)
	require.Equal(t, int64(10000000), accountBalance(t, e.db, userID, bank.ID))
}

func TestSOATExpiringSoonAndExpiredLists(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	vehicle := seedVehicle(t, e, userID, "AAA111")
	seedSOAT(t, e, userID, vehicle.ID, 10, 30)
	seedSOAT(t, e, userID, vehicle.ID, -3, 30)
	seedSOAT(t, e, userID, vehicle.ID, 120, 30)

	soon, err := e.soats.ExpiringSoon(userID)
	require.NoError(t, err)
	require.Len(t, soon, 1)

	expired, err := e.soats.Expired(userID)
	require.NoError(t, err)
	require.Len(t, expired, 1)
}
