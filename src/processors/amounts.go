package processors

import (
	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/money"
)

// AmountInput is the caller-supplied portion of a transaction's amounts.
// Exactly one of BaseAmount or TotalAmount must be set.
type AmountInput struct {
	Type           int
	BaseAmount     *int64
	TotalAmount    *int64
	TaxPercentage  int64
	CapitalAmount  *int64
	InterestAmount *int64
}

// Amounts is the fully derived set persisted on a transaction.
// Total always equals Base + Taxed + GMF.
type Amounts struct {
	Base     int64
	Taxed    int64
	GMF      int64
	Capital  int64
	Interest int64
	Total    int64
}

const (
	maxTaxPercentage = 30
	gmfCurrency      = "COP"
)

// DeriveAmounts computes every amount field from the input. The order of
// steps is significant: base/taxed first, then GMF, then the total
// identity, then the credit-card split against that total.
func DeriveAmounts(in AmountInput, origin *model.Account, destination *model.Account) (Amounts, error) {
	var out Amounts

	if !model.ValidTransactionType(in.Type) {
		return out, model.NewValidationError("type", "unknown transaction type")
	}
	if in.TaxPercentage < 0 || in.TaxPercentage > maxTaxPercentage {
		return out, model.NewValidationError("tax_percentage", "must be between 0 and 30")
	}
	if in.BaseAmount != nil && in.TotalAmount != nil {
		return out, model.NewValidationError("base_amount", "provide either base_amount or total_amount, not both")
	}
	if in.BaseAmount == nil && in.TotalAmount == nil {
		return out, model.NewValidationError("base_amount", "either base_amount or total_amount is required")
	}

	switch {
	case in.BaseAmount != nil:
		if *in.BaseAmount <= 0 {
			return out, model.NewValidationError("base_amount", "must be positive")
		}
		out.Base = *in.BaseAmount
		out.Taxed = money.PercentFloor(out.Base, in.TaxPercentage)
	default:
		if *in.TotalAmount <= 0 {
			return out, model.NewValidationError("total_amount", "must be positive")
		}
		out.Base = money.InverseBase(*in.TotalAmount, in.TaxPercentage)
		out.Taxed = *in.TotalAmount - out.Base
	}

	if GMFApplies(in.Type, origin) {
		out.GMF = money.GMF(out.Base + out.Taxed)
	}

	// A caller-supplied total only back-solves the base. The persisted
	// total is always recomputed from its parts.
	out.Total = out.Base + out.Taxed + out.GMF

	if in.Type == model.TransactionTypeTransfer && destination != nil && destination.Category == model.AccountCategoryCreditCard {
		capital, interest, err := splitCreditCardPayment(out.Total, in.CapitalAmount, in.InterestAmount)
		if err != nil {
			return out, err
		}
		out.Capital = capital
		out.Interest = interest
	}

	return out, nil
}

// GMFApplies reports whether the financial-operations levy is due on this
// posting. The levy hits outgoing movements from non-exempt COP accounts;
// credit cards are charged by the issuer, not at posting time.
func GMFApplies(txType int, origin *model.Account) bool {
	if txType != model.TransactionTypeExpense && txType != model.TransactionTypeTransfer {
		return false
	}
	if origin == nil || origin.GMFExempt {
		return false
	}
	if origin.Category == model.AccountCategoryCreditCard {
		return false
	}
	return origin.Currency == gmfCurrency
}

func splitCreditCardPayment(total int64, capital, interest *int64) (int64, int64, error) {
	switch {
	case capital == nil && interest == nil:
		return total, 0, nil
	case capital != nil && interest == nil:
		if *capital < 0 || *capital > total {
			return 0, 0, model.NewValidationError("capital_amount", "must be between 0 and total_amount")
		}
		return *capital, total - *capital, nil
	case capital == nil:
		if *interest < 0 || *interest > total {
			return 0, 0, model.NewValidationError("interest_amount", "must be between 0 and total_amount")
		}
		return total - *interest, *interest, nil
	default:
		if *capital < 0 {
			return 0, 0, model.NewValidationError("capital_amount", "must not be negative")
		}
		if *interest < 0 {
			return 0, 0, model.NewValidationError("interest_amount", "must not be negative")
		}
		if *capital+*interest != total {
			return 0, 0, model.NewValidationError("capital_amount", "capital_amount plus interest_amount must equal total_amount")
		}
		return *capital, *interest, nil
	}
}

// CheckSufficiency verifies the origin account can cover an outgoing total.
// Credit cards may go negative down to their credit limit; every other
// account must hold the full amount.
func CheckSufficiency(origin *model.Account, total int64) error {
	if origin.Category == model.AccountCategoryCreditCard {
		var limit int64
		if origin.CreditLimit != nil {
			limit = *origin.CreditLimit
		}
		if origin.CurrentBalance-total < -limit {
			return model.NewValidationError("total_amount", "payment exceeds the card's credit limit")
		}
		return nil
	}
	if origin.CurrentBalance < total {
		return model.NewValidationError("total_amount", "insufficient balance on origin account")
	}
	return nil
}

// ValidateShape enforces the per-type cross-field constraints once the
// final category is known (rules may have assigned it).
func ValidateShape(txType int, origin *model.Account, destination *model.Account, category *model.Category) error {
	switch txType {
	case model.TransactionTypeIncome:
		if destination != nil {
			return model.NewValidationError("destination_account_id", "income must not have a destination account")
		}
		if category == nil {
			return model.NewValidationError("category_id", "income requires a category")
		}
		if category.Type != model.CategoryTypeIncome {
			return model.NewValidationError("category_id", "income requires an income category")
		}
	case model.TransactionTypeExpense:
		if destination != nil {
			return model.NewValidationError("destination_account_id", "expense must not have a destination account")
		}
		if category == nil {
			return model.NewValidationError("category_id", "expense requires a category")
		}
		if category.Type != model.CategoryTypeExpense {
			return model.NewValidationError("category_id", "expense requires an expense category")
		}
	case model.TransactionTypeTransfer:
		if destination == nil {
			return model.NewValidationError("destination_account_id", "transfer requires a destination account")
		}
		if destination.ID == origin.ID {
			return model.NewValidationError("destination_account_id", "transfer destination must differ from origin")
		}
		if category != nil {
			return model.NewValidationError("category_id", "transfer must not have a category")
		}
	case model.TransactionTypeSaving:
		if destination != nil {
			return model.NewValidationError("destination_account_id", "saving must not have a destination account")
		}
	default:
		return model.NewValidationError("type", "unknown transaction type")
	}
	return nil
}
