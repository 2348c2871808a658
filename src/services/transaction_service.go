package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finanzas/backend/src/fx"
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

// CreateTransactionInput is the caller-supplied payload for a posting.
// Amounts are integers in minor units of the transaction currency, which
// defaults to the origin account's currency.
type CreateTransactionInput struct {
	Type                 int     `json:"type"`
	OriginAccountID      int64   `json:"origin_account_id"`
	DestinationAccountID *int64  `json:"destination_account_id"`
	CategoryID           *int64  `json:"category_id"`
	GoalID               *int64  `json:"goal_id"`
	Date                 string  `json:"date"`
	Description          string  `json:"description"`
	Tag                  string  `json:"tag"`
	Note                 string  `json:"note"`
	BaseAmount           *int64  `json:"base_amount"`
	TotalAmount          *int64  `json:"total_amount"`
	TaxPercentage        int64   `json:"tax_percentage"`
	CapitalAmount        *int64  `json:"capital_amount"`
	InterestAmount       *int64  `json:"interest_amount"`
	TransactionCurrency  *string `json:"transaction_currency"`
}

// TransactionService owns the authoritative write path: amount
// derivation, rule application, balance deltas and event dispatch.
// Derivation, rule application and balance updates happen inside a
// single database transaction while the involved account locks are held.
type TransactionService struct {
	db         *sql.DB
	rates      fx.RateProvider
	dispatcher *Dispatcher
	locks      *accountLocker
	accounts   *AccountService
}

func NewTransactionService(db *sql.DB, rates fx.RateProvider, dispatcher *Dispatcher, accounts *AccountService) *TransactionService {
	return &TransactionService{
		db:         db,
		rates:      rates,
		dispatcher: dispatcher,
		locks:      newAccountLocker(),
		accounts:   accounts,
	}
}

func (s *TransactionService) Create(userID int64, in CreateTransactionInput) (*model.Transaction, error) {
	date, err := time.Parse(model.DateLayout, in.Date)
	if err != nil {
		return nil, model.NewValidationError("date", "invalid date, expected YYYY-MM-DD")
	}

	origin, err := model.GetAccountByID(s.db, userID, in.OriginAccountID)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, model.NewValidationError("origin_account_id", "origin account not found")
		}
		return nil, err
	}
	if !origin.IsActive {
		return nil, model.NewValidationError("origin_account_id", "origin account is inactive")
	}

	var destination *model.Account
	if in.DestinationAccountID != nil {
		destination, err = model.GetAccountByID(s.db, userID, *in.DestinationAccountID)
		if err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("destination_account_id", "destination account not found")
			}
			return nil, err
		}
	}

	if in.GoalID != nil {
		if in.Type != model.TransactionTypeSaving {
			return nil, model.NewValidationError("goal_id", "only saving transactions may reference a goal")
		}
		if _, err := model.GetGoalByID(s.db, userID, *in.GoalID); err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("goal_id", "goal not found")
			}
			return nil, err
		}
	}

	tx := &model.Transaction{
		UserID:          userID,
		OriginAccountID: origin.ID,
		Type:            in.Type,
		Date:            date.Format(model.DateLayout),
		Description:     in.Description,
		Tag:             in.Tag,
		Note:            in.Note,
		TaxPercentage:   in.TaxPercentage,
		GoalID:          in.GoalID,
	}
	if destination != nil {
		tx.DestinationAccountID = &destination.ID
	}

	baseAmount, totalAmount := in.BaseAmount, in.TotalAmount
	s.convertCurrency(tx, origin, date, &baseAmount, &totalAmount, in.TransactionCurrency)

	category, err := s.resolveCategory(userID, tx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	amounts, err := processors.DeriveAmounts(processors.AmountInput{
		Type:           in.Type,
		BaseAmount:     baseAmount,
		TotalAmount:    totalAmount,
		TaxPercentage:  in.TaxPercentage,
		CapitalAmount:  in.CapitalAmount,
		InterestAmount: in.InterestAmount,
	}, origin, destination)
	if err != nil {
		return nil, err
	}
	tx.BaseAmount = amounts.Base
	tx.TaxedAmount = amounts.Taxed
	tx.GMFAmount = amounts.GMF
	tx.CapitalAmount = amounts.Capital
	tx.InterestAmount = amounts.Interest
	tx.TotalAmount = amounts.Total

	if err := processors.ValidateShape(in.Type, origin, destination, category); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountIDs(tx)...)
	defer unlock()

	// Balances may have moved since the initial load; re-read under lock.
	origin, err = model.GetAccountByID(s.db, userID, origin.ID)
	if err != nil {
		return nil, err
	}
	if destination != nil {
		destination, err = model.GetAccountByID(s.db, userID, destination.ID)
		if err != nil {
			return nil, err
		}
	}

	if in.Type == model.TransactionTypeExpense || in.Type == model.TransactionTypeTransfer {
		if err := processors.CheckSufficiency(origin, tx.TotalAmount); err != nil {
			return nil, err
		}
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := insertTransaction(dbTx, tx); err != nil {
		return nil, err
	}
	if err := s.applyDeltas(dbTx, tx, destination, 1); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.accounts.InvalidateSummary(userID)
	s.dispatcher.Dispatch(TransactionEvent{Action: EventCreated, Tx: tx})
	return tx, nil
}

// Update re-runs the full derivation, reversing the old balance effect
// and applying the new one atomically. Downstream handlers see it as
// a single updated event carrying the pre-image.
func (s *TransactionService) Update(userID, id int64, in CreateTransactionInput) (*model.Transaction, error) {
	prev, err := model.GetTransactionByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(model.DateLayout, in.Date)
	if err != nil {
		return nil, model.NewValidationError("date", "invalid date, expected YYYY-MM-DD")
	}

	origin, err := model.GetAccountByID(s.db, userID, in.OriginAccountID)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, model.NewValidationError("origin_account_id", "origin account not found")
		}
		return nil, err
	}

	var destination *model.Account
	if in.DestinationAccountID != nil {
		destination, err = model.GetAccountByID(s.db, userID, *in.DestinationAccountID)
		if err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("destination_account_id", "destination account not found")
			}
			return nil, err
		}
	}

	if in.GoalID != nil && in.Type != model.TransactionTypeSaving {
		return nil, model.NewValidationError("goal_id", "only saving transactions may reference a goal")
	}
	if in.GoalID != nil {
		if _, err := model.GetGoalByID(s.db, userID, *in.GoalID); err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("goal_id", "goal not found")
			}
			return nil, err
		}
	}

	tx := &model.Transaction{
		ID:              id,
		UserID:          userID,
		OriginAccountID: origin.ID,
		Type:            in.Type,
		Date:            date.Format(model.DateLayout),
		Description:     in.Description,
		Tag:             in.Tag,
		Note:            in.Note,
		TaxPercentage:   in.TaxPercentage,
		GoalID:          in.GoalID,
		CategoryID:      in.CategoryID,
	}
	if destination != nil {
		tx.DestinationAccountID = &destination.ID
	}
	// Rules only run at creation. The original classification survives an
	// update as long as the category was not changed.
	if prev.AppliedRuleID != nil && in.CategoryID != nil && prev.CategoryID != nil && *in.CategoryID == *prev.CategoryID {
		tx.AppliedRuleID = prev.AppliedRuleID
	}

	baseAmount, totalAmount := in.BaseAmount, in.TotalAmount
	s.convertCurrency(tx, origin, date, &baseAmount, &totalAmount, in.TransactionCurrency)

	var category *model.Category
	if in.CategoryID != nil {
		category, err = model.GetCategoryByID(s.db, userID, *in.CategoryID)
		if err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("category_id", "category not found")
			}
			return nil, err
		}
	}

	amounts, err := processors.DeriveAmounts(processors.AmountInput{
		Type:           in.Type,
		BaseAmount:     baseAmount,
		TotalAmount:    totalAmount,
		TaxPercentage:  in.TaxPercentage,
		CapitalAmount:  in.CapitalAmount,
		InterestAmount: in.InterestAmount,
	}, origin, destination)
	if err != nil {
		return nil, err
	}
	tx.BaseAmount = amounts.Base
	tx.TaxedAmount = amounts.Taxed
	tx.GMFAmount = amounts.GMF
	tx.CapitalAmount = amounts.Capital
	tx.InterestAmount = amounts.Interest
	tx.TotalAmount = amounts.Total

	if err := processors.ValidateShape(in.Type, origin, destination, category); err != nil {
		return nil, err
	}

	var prevDestination *model.Account
	if prev.DestinationAccountID != nil {
		prevDestination, err = model.GetAccountByID(s.db, userID, *prev.DestinationAccountID)
		if err != nil && err != model.ErrNotFound {
			return nil, err
		}
	}

	ids := append(accountIDs(tx), accountIDs(prev)...)
	unlock := s.locks.lock(ids...)
	defer unlock()

	origin, err = model.GetAccountByID(s.db, userID, origin.ID)
	if err != nil {
		return nil, err
	}

	if in.Type == model.TransactionTypeExpense || in.Type == model.TransactionTypeTransfer {
		// Sufficiency is judged against the balance as it will stand once
		// the old posting has been reversed.
		effective := *origin
		prevOriginDelta, _ := balanceDeltas(prev, prevDestination)
		if prev.OriginAccountID == origin.ID {
			effective.CurrentBalance -= prevOriginDelta
		}
		if err := processors.CheckSufficiency(&effective, tx.TotalAmount); err != nil {
			return nil, err
		}
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := s.applyDeltas(dbTx, prev, prevDestination, -1); err != nil {
		return nil, err
	}
	if err := updateTransaction(dbTx, tx); err != nil {
		return nil, err
	}
	if err := s.applyDeltas(dbTx, tx, destination, 1); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.accounts.InvalidateSummary(userID)
	s.dispatcher.Dispatch(TransactionEvent{Action: EventUpdated, Tx: tx, Prev: prev})
	return tx, nil
}

// Delete reverses the balance effect and removes the row.
func (s *TransactionService) Delete(userID, id int64) error {
	tx, err := model.GetTransactionByID(s.db, userID, id)
	if err != nil {
		return err
	}

	var destination *model.Account
	if tx.DestinationAccountID != nil {
		destination, err = model.GetAccountByID(s.db, userID, *tx.DestinationAccountID)
		if err != nil && err != model.ErrNotFound {
			return err
		}
	}

	unlock := s.locks.lock(accountIDs(tx)...)
	defer unlock()

	dbTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := s.applyDeltas(dbTx, tx, destination, -1); err != nil {
		return err
	}
	if _, err := dbTx.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.accounts.InvalidateSummary(userID)
	s.dispatcher.Dispatch(TransactionEvent{Action: EventDeleted, Tx: tx})
	return nil
}

// Duplicate re-posts an existing transaction as of the same date, running
// the full derivation against current balances.
func (s *TransactionService) Duplicate(userID, id int64) (*model.Transaction, error) {
	src, err := model.GetTransactionByID(s.db, userID, id)
	if err != nil {
		return nil, err
	}

	in := CreateTransactionInput{
		Type:                 src.Type,
		OriginAccountID:      src.OriginAccountID,
		DestinationAccountID: src.DestinationAccountID,
		CategoryID:           src.CategoryID,
		GoalID:               src.GoalID,
		Date:                 src.Date,
		Description:          src.Description,
		Tag:                  src.Tag,
		Note:                 src.Note,
		BaseAmount:           &src.BaseAmount,
		TaxPercentage:        src.TaxPercentage,
	}
	if src.CapitalAmount > 0 || src.InterestAmount > 0 {
		in.CapitalAmount = &src.CapitalAmount
		in.InterestAmount = &src.InterestAmount
	}
	return s.Create(userID, in)
}

// BulkDelete removes the given transactions, skipping ids that are
// missing or already gone. Returns the number actually deleted.
func (s *TransactionService) BulkDelete(userID int64, ids []int64) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := s.Delete(userID, id)
		if err == model.ErrNotFound {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// convertCurrency rewrites the supplied amount into the origin account's
// currency when the transaction was entered in a different one. A
// provider failure records a warning and leaves the amount untouched;
// the posting still goes through.
func (s *TransactionService) convertCurrency(tx *model.Transaction, origin *model.Account, date time.Time, base, total **int64, txCurrency *string) {
	if txCurrency == nil || *txCurrency == "" || *txCurrency == origin.Currency {
		return
	}

	var amount *int64
	if *base != nil {
		amount = *base
	} else if *total != nil {
		amount = *total
	}
	if amount == nil {
		return
	}

	original := *amount
	tx.TransactionCurrency = txCurrency
	tx.OriginalAmount = &original

	rate, err := s.rates.Rate(*txCurrency, origin.Currency, date)
	if err != nil {
		tx.ConversionWarning = fmt.Sprintf("no exchange rate for %s to %s on %s; amount kept in %s",
			*txCurrency, origin.Currency, tx.Date, *txCurrency)
		logger.L.Warn("exchange rate unavailable",
			"from", *txCurrency, "to", origin.Currency, "date", tx.Date, "error", err)
		return
	}

	converted := fx.Convert(original, rate)
	rateStr := rate.String()
	tx.ExchangeRate = &rateStr
	if *base != nil {
		*base = &converted
	} else {
		*total = &converted
	}
}

// resolveCategory returns the transaction's category, running the rule
// engine when the caller did not pick one. Rule failures are logged and
// never abort the posting.
func (s *TransactionService) resolveCategory(userID int64, tx *model.Transaction, categoryID *int64) (*model.Category, error) {
	if categoryID != nil {
		category, err := model.GetCategoryByID(s.db, userID, *categoryID)
		if err != nil {
			if err == model.ErrNotFound {
				return nil, model.NewValidationError("category_id", "category not found")
			}
			return nil, err
		}
		tx.CategoryID = &category.ID
		return category, nil
	}

	rules, err := model.ListRules(s.db, userID, true)
	if err != nil {
		logger.L.Error("loading rules for classification", "userID", userID, "error", err)
		return nil, nil
	}
	winner := processors.MatchRule(rules, tx.Description, tx.Type)
	if winner == nil {
		return nil, nil
	}

	switch winner.ActionType {
	case model.RuleActionAssignCategory:
		if winner.TargetCategoryID == nil {
			logger.L.Warn("rule has no target category", "ruleID", winner.ID)
			return nil, nil
		}
		category, err := model.GetCategoryByID(s.db, userID, *winner.TargetCategoryID)
		if err != nil {
			logger.L.Warn("rule target category unavailable", "ruleID", winner.ID, "error", err)
			return nil, nil
		}
		if !categoryAssignable(tx.Type, category) {
			logger.L.Warn("rule category does not fit the transaction type",
				"ruleID", winner.ID, "categoryID", category.ID, "transactionType", tx.Type)
			return nil, nil
		}
		tx.CategoryID = &category.ID
		tx.AppliedRuleID = &winner.ID
		return category, nil
	case model.RuleActionAssignTag:
		if winner.TargetTag != nil {
			tx.Tag = *winner.TargetTag
			tx.AppliedRuleID = &winner.ID
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// categoryAssignable reports whether a rule-assigned category keeps the
// posting shape valid. Transfers carry no category; income and expense
// only take a category of their own type. A mismatched rule is skipped,
// it never vetoes the posting.
func categoryAssignable(txType int, category *model.Category) bool {
	switch txType {
	case model.TransactionTypeTransfer:
		return false
	case model.TransactionTypeIncome:
		return category.Type == model.CategoryTypeIncome
	case model.TransactionTypeExpense:
		return category.Type == model.CategoryTypeExpense
	default:
		return true
	}
}

func accountIDs(tx *model.Transaction) []int64 {
	ids := []int64{tx.OriginAccountID}
	if tx.DestinationAccountID != nil {
		ids = append(ids, *tx.DestinationAccountID)
	}
	return ids
}

// balanceDeltas returns the signed balance change for the origin and
// destination accounts of one posting. Transfers into a credit card only
// reduce debt by the capital portion; interest is a cost, not principal.
// Saving postings move no account money, only goal progress.
func balanceDeltas(tx *model.Transaction, destination *model.Account) (int64, int64) {
	switch tx.Type {
	case model.TransactionTypeIncome:
		return tx.TotalAmount, 0
	case model.TransactionTypeExpense:
		return -tx.TotalAmount, 0
	case model.TransactionTypeTransfer:
		if destination != nil && destination.Category == model.AccountCategoryCreditCard {
			return -tx.TotalAmount, tx.CapitalAmount
		}
		return -tx.TotalAmount, tx.BaseAmount
	default:
		return 0, 0
	}
}

func (s *TransactionService) applyDeltas(dbTx *sql.Tx, tx *model.Transaction, destination *model.Account, sign int64) error {
	originDelta, destDelta := balanceDeltas(tx, destination)
	if originDelta != 0 {
		if _, err := dbTx.Exec(`UPDATE accounts SET current_balance = current_balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			sign*originDelta, tx.OriginAccountID); err != nil {
			return fmt.Errorf("updating origin balance: %w", err)
		}
	}
	if destDelta != 0 && tx.DestinationAccountID != nil {
		if _, err := dbTx.Exec(`UPDATE accounts SET current_balance = current_balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			sign*destDelta, *tx.DestinationAccountID); err != nil {
			return fmt.Errorf("updating destination balance: %w", err)
		}
	}
	return nil
}

func insertTransaction(dbTx *sql.Tx, tx *model.Transaction) error {
	res, err := dbTx.Exec(`
	INSERT INTO transactions (user_id, origin_account_id, destination_account_id, category_id, applied_rule_id, goal_id,
		type, date, description, tag, note,
		base_amount, tax_percentage, taxed_amount, gmf_amount, capital_amount, interest_amount, total_amount,
		transaction_currency, exchange_rate, original_amount, conversion_warning)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.OriginAccountID, tx.DestinationAccountID, tx.CategoryID, tx.AppliedRuleID, tx.GoalID,
		tx.Type, tx.Date, tx.Description, tx.Tag, tx.Note,
		tx.BaseAmount, tx.TaxPercentage, tx.TaxedAmount, tx.GMFAmount, tx.CapitalAmount, tx.InterestAmount, tx.TotalAmount,
		tx.TransactionCurrency, tx.ExchangeRate, tx.OriginalAmount, tx.ConversionWarning)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

func updateTransaction(dbTx *sql.Tx, tx *model.Transaction) error {
	res, err := dbTx.Exec(`
	UPDATE transactions SET origin_account_id = ?, destination_account_id = ?, category_id = ?, applied_rule_id = ?, goal_id = ?,
		type = ?, date = ?, description = ?, tag = ?, note = ?,
		base_amount = ?, tax_percentage = ?, taxed_amount = ?, gmf_amount = ?, capital_amount = ?, interest_amount = ?, total_amount = ?,
		transaction_currency = ?, exchange_rate = ?, original_amount = ?, conversion_warning = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ?`,
		tx.OriginAccountID, tx.DestinationAccountID, tx.CategoryID, tx.AppliedRuleID, tx.GoalID,
		tx.Type, tx.Date, tx.Description, tx.Tag, tx.Note,
		tx.BaseAmount, tx.TaxPercentage, tx.TaxedAmount, tx.GMFAmount, tx.CapitalAmount, tx.InterestAmount, tx.TotalAmount,
		tx.TransactionCurrency, tx.ExchangeRate, tx.OriginalAmount, tx.ConversionWarning, tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
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
