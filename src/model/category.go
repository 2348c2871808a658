package model

import (
	"database/sql"
	"strings"
	"time"
	"unicode"
)

const (
	CategoryTypeIncome  = "income"
	CategoryTypeExpense = "expense"
)

type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	SortOrder int64     `json:"sort_order"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidCategoryType(t string) bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// NormalizeCategoryName trims and title-cases a category name, so "comida
// rápida" and "Comida Rápida" collapse to the same stored value.
func NormalizeCategoryName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	for i, word := range fields {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

const categoryColumns = `id, user_id, name, type, icon, color, sort_order, is_default, is_active, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color,
		&c.SortOrder, &c.IsDefault, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (c *Category) Create(db *sql.DB) error {
	c.Name = NormalizeCategoryName(c.Name)
	res, err := db.Exec(`
	INSERT INTO categories (user_id, name, type, icon, color, sort_order, is_default, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Type, c.Icon, c.Color, c.SortOrder, c.IsDefault, c.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func GetCategoryByID(db *sql.DB, userID, id int64) (*Category, error) {
	row := db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	return scanCategory(row)
}

func ListCategories(db *sql.DB, userID int64, categoryType string) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?`
	args := []any{userID}
	if categoryType != "" {
		query += ` AND type = ?`
		args = append(args, categoryType)
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

func (c *Category) Update(db *sql.DB) error {
	c.Name = NormalizeCategoryName(c.Name)
	res, err := db.Exec(`
	UPDATE categories SET name = ?, icon = ?, color = ?, sort_order = ?, is_active = ?
	WHERE id = ? AND user_id = ? AND is_default = FALSE`,
		c.Name, c.Icon, c.Color, c.SortOrder, c.IsActive, c.ID, c.UserID)
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

func DeleteCategory(db *sql.DB, userID, id int64) error {
	res, err := db.Exec(`DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = FALSE`, id, userID)
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

// CountCategories counts all of a user's categories; the 100-per-user cap
// is enforced at the service layer.
func CountCategories(db *sql.DB, userID int64) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// CountCategoryReferences reports transactions and budgets pointing at the
// category; a category with references cannot be deleted without a
// reassignment target.
func CountCategoryReferences(db *sql.DB, userID, categoryID int64) (transactions, budgets int64, err error) {
	err = db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`,
		userID, categoryID).Scan(&transactions)
	if err != nil {
		return 0, 0, err
	}
	err = db.QueryRow(`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND category_id = ?`,
		userID, categoryID).Scan(&budgets)
	if err != nil {
		return 0, 0, err
	}
	return transactions, budgets, nil
}

// ReassignCategoryReferences moves transactions and budgets from one
// category to another ahead of deletion.
func ReassignCategoryReferences(db *sql.DB, userID, fromID, toID int64) error {
	dbTx, err := db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`UPDATE transactions SET category_id = ? WHERE category_id = ? AND user_id = ?`, toID, fromID, userID); err != nil {
		return err
	}
	if _, err := dbTx.Exec(`UPDATE budgets SET category_id = ? WHERE category_id = ? AND user_id = ?`, toID, fromID, userID); err != nil {
		return err
	}
	return dbTx.Commit()
}
