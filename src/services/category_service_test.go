package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/finanzas/backend/src/model"
)

func TestCreateDefaultsIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	created, err := e.categories.CreateDefaults(userID)
	require.NoError(t, err)
	require.Len(t, created, 9)

	// Rerunning skips every existing name.
	created, err = e.categories.CreateDefaults(userID)
	require.NoError(t, err)
	require.Empty(t, created)
}

func TestDefaultCategoriesAreImmutable(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	created, err := e.categories.CreateDefaults(userID)
	require.NoError(t, err)

	_, err = e.categories.Update(userID, created[0].ID, CategoryInput{Name: "Renamed"})
	require.ErrorIs(t, err, model.ErrConflict)

	err = e.categories.Delete(userID, created[0].ID, nil)
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestCategoryNameUniquePerType(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")

	_, err := e.categories.Create(userID, CategoryInput{Name: "Food", Type: model.CategoryTypeExpense})
	require.NoError(t, err)

	// Same name, same type collides regardless of case.
	_, err = e.categories.Create(userID, CategoryInput{Name: "  food ", Type: model.CategoryTypeExpense})
	require.ErrorIs(t, err, model.ErrConflict)

	// Same name under the other type is fine.
	_, err = e.categories.Create(userID, CategoryInput{Name: "Food", Type: model.CategoryTypeIncome})
	require.NoError(t, err)
}

func TestDeleteRequiresReassignmentWhenInUse(t *testing.T) {
	e := newTestEngine(t)
	userID := seedUser(t, e.db, "alice")
	bank := seedBankAccount(t, e.db, userID, "Bank", "COP", 10000000)
	food, err := e.categories.Create(userID, CategoryInput{Name: "Food", Type: model.CategoryTypeExpense})
	require.NoError(t, err)
	dining, err := e.categories.Create(userID, CategoryInput{Name: "Dining", Type: model.CategoryTypeExpense})
	require.NoError(t, err)

	tx, err := e.transactions.Create(userID, CreateTransactionInput{
		Type:            model.TransactionTypeExpense,
		OriginAccountID: bank.ID,
		CategoryID:      &food.ID,
		Date:            "2025-06-01",
		BaseAmount:      int64Ptr(100000),
	})
	require.NoError(t, err)

	err = e.categories.Delete(userID, food.ID, nil)
	require.True(t, model.IsValidation(err))

	salary, err := e.categories.Create(userID, CategoryInput{Name: "Salary", Type: model.CategoryTypeIncome})
	require.NoError(t, err)
	err = e.categories.Delete(userID, food.ID, &salary.ID)
	require.True(t, model.IsValidation(err))

	require.NoError(t, e.categories.Delete(userID, food.ID, &dining.ID))

	moved, err := model.GetTransactionByID(e.db, userID, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.CategoryID)
	require.Equal(t, dining.ID, *moved.CategoryID)

	_, err = model.GetCategoryByID(e.db, userID, food.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}
