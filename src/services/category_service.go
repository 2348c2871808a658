package services

import (
	"database/sql"
	"fmt"

	"github.com/username/finanzas/backend/src/model"
)

const maxCategoriesPerUser = 100

// defaultCategories is seeded by create_defaults. Default categories are
// immutable.
var defaultCategories = []struct {
	Name string
	Type string
}{
	{"Salary", model.CategoryTypeIncome},
	{"Other Income", model.CategoryTypeIncome},
	{"Food", model.CategoryTypeExpense},
	{"Transport", model.CategoryTypeExpense},
	{"Housing", model.CategoryTypeExpense},
	{"Services", model.CategoryTypeExpense},
	{"Health", model.CategoryTypeExpense},
	{"Entertainment", model.CategoryTypeExpense},
	{"Other Expenses", model.CategoryTypeExpense},
}

// CategoryService owns category CRUD, the per-user cap, and
// reassignment-guarded deletion.
type CategoryService struct {
	db *sql.DB
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

type CategoryInput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	SortOrder int64  `json:"sort_order"`
}

func (s *CategoryService) Create(userID int64, in CategoryInput) (*model.Category, error) {
	name := model.NormalizeCategoryName(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "required")
	}
	if !model.ValidCategoryType(in.Type) {
		return nil, model.NewValidationError("type", "must be income or expense")
	}

	count, err := model.CountCategories(s.db, userID)
	if err != nil {
		return nil, err
	}
	if count >= maxCategoriesPerUser {
		return nil, fmt.Errorf("%w: category limit of %d reached", model.ErrConflict, maxCategoriesPerUser)
	}

	category := &model.Category{
		UserID:    userID,
		Name:      name,
		Type:      in.Type,
		Icon:      in.Icon,
		Color:     in.Color,
		SortOrder: in.SortOrder,
		IsActive:  true,
	}
	if err := category.Create(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a %s category with this name already exists", model.ErrConflict, in.Type)
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(userID, id int64, in CategoryInput) (*model.Category, error) {
	category, err := model.GetCategoryByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if category.IsDefault {
		return nil, fmt.Errorf("%w: default categories are immutable", model.ErrConflict)
	}
	name := model.NormalizeCategoryName(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "required")
	}
	category.Name = name
	category.Icon = in.Icon
	category.Color = in.Color
	category.SortOrder = in.SortOrder
	if err := category.Update(s.db); err != nil {
		if model.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a %s category with this name already exists", model.ErrConflict, category.Type)
		}
		return nil, err
	}
	return category, nil
}

// Delete removes a category, requiring a same-type reassignment target
// while transactions or budgets still reference it.
func (s *CategoryService) Delete(userID, id int64, reassignToID *int64) error {
	category, err := model.GetCategoryByID(s.db, userID, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return fmt.Errorf("%w: default categories are immutable", model.ErrConflict)
	}

	transactions, budgets, err := model.CountCategoryReferences(s.db, userID, id)
	if err != nil {
		return err
	}
	if transactions+budgets > 0 {
		if reassignToID == nil {
			return model.NewValidationError("reassign_to", "category is in use; a reassignment target is required")
		}
		target, err := model.GetCategoryByID(s.db, userID, *reassignToID)
		if err != nil {
			if err == model.ErrNotFound {
				return model.NewValidationError("reassign_to", "target category not found")
			}
			return err
		}
		if target.Type != category.Type {
			return model.NewValidationError("reassign_to", "target category must have the same type")
		}
		if target.ID == category.ID {
			return model.NewValidationError("reassign_to", "target category must differ")
		}
		if err := model.ReassignCategoryReferences(s.db, userID, id, target.ID); err != nil {
			if model.IsUniqueViolation(err) {
				return fmt.Errorf("%w: reassignment would duplicate an existing budget", model.ErrConflict)
			}
			return err
		}
	}
	return model.DeleteCategory(s.db, userID, id)
}

func (s *CategoryService) ToggleActive(userID, id int64) (*model.Category, error) {
	category, err := model.GetCategoryByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}
	category.IsActive = !category.IsActive
	if err := toggleCategoryActive(s.db, userID, id, category.IsActive); err != nil {
		return nil, err
	}
	return category, nil
}

// Default categories cannot go through Category.Update, so the active
// flag flips with a dedicated statement.
func toggleCategoryActive(db *sql.DB, userID, id int64, active bool) error {
	res, err := db.Exec(`UPDATE categories SET is_active = ? WHERE id = ? AND user_id = ?`, active, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CreateDefaults seeds the default category set, skipping names the user
// already has.
func (s *CategoryService) CreateDefaults(userID int64) ([]model.Category, error) {
	created := []model.Category{}
	for _, d := range defaultCategories {
		category := &model.Category{
			UserID:    userID,
			Name:      d.Name,
			Type:      d.Type,
			IsDefault: true,
			IsActive:  true,
		}
		if err := category.Create(s.db); err != nil {
			if model.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		created = append(created, *category)
	}
	return created, nil
}

// CategoryStat is per-category usage for the stats endpoint.
type CategoryStat struct {
	Category         model.Category `json:"category"`
	TransactionCount int64          `json:"transaction_count"`
	TotalAmount      int64          `json:"total_amount"`
}

func (s *CategoryService) Stats(userID int64) ([]CategoryStat, error) {
	categories, err := model.ListCategories(s.db, userID, "")
	if err != nil {
		return nil, err
	}
	stats := []CategoryStat{}
	for _, c := range categories {
		var count, total int64
		err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM transactions
		WHERE user_id = ? AND category_id = ?`, userID, c.ID).Scan(&count, &total)
		if err != nil {
			return nil, err
		}
		stats = append(stats, CategoryStat{Category: c, TransactionCount: count, TotalAmount: total})
	}
	return stats, nil
}

// CategoryOrder is one entry of a bulk order update.
type CategoryOrder struct {
	ID        int64 `json:"id"`
	SortOrder int64 `json:"sort_order"`
}

// BulkUpdateOrder rewrites sort_order atomically; unknown ids are
// ignored.
func (s *CategoryService) BulkUpdateOrder(userID int64, orders []CategoryOrder) error {
	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	for _, o := range orders {
		if _, err := dbTx.Exec(`UPDATE categories SET sort_order = ? WHERE id = ? AND user_id = ?`, o.SortOrder, o.ID, userID); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}
