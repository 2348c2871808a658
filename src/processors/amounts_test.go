package processors

import (
	"testing"

	"github.com/username/finanzas/backend/src/model"
)

func int64Ptr(v int64) *int64 { return &v }

func copBank(balance int64) *model.Account {
	return &model.Account{ID: 1, Category: model.AccountCategoryBank, Currency: "COP", CurrentBalance: balance}
}

func creditCard(balance, limit int64) *model.Account {
	return &model.Account{ID: 2, Category: model.AccountCategoryCreditCard, Currency: "COP", CurrentBalance: balance, CreditLimit: &limit}
}

func TestDeriveAmountsFromBase(t *testing.T) {
	out, err := DeriveAmounts(AmountInput{
		Type:          model.TransactionTypeExpense,
		BaseAmount:    int64Ptr(10000000),
		TaxPercentage: 19,
	}, copBank(20000000), nil)
	if err != nil {
		t.Fatalf("DeriveAmounts: %v", err)
	}
	if out.Taxed != 1900000 {
		t.Errorf("taxed = %d, want 1900000", out.Taxed)
	}
	if out.GMF != 47600 {
		t.Errorf("gmf = %d, want 47600", out.GMF)
	}
	if out.Total != 11947600 {
		t.Errorf("total = %d, want 11947600", out.Total)
	}
	if out.Total != out.Base+out.Taxed+out.GMF {
		t.Errorf("total %d does not equal base+taxed+gmf", out.Total)
	}
}

func TestDeriveAmountsInverseTaxRoundTrip(t *testing.T) {
	bases := []int64{1, 99, 100, 12345, 10000000, 987654321}
	for _, base := range bases {
		for tax := int64(0); tax <= 30; tax++ {
			total := base + base*tax/100
			out, err := DeriveAmounts(AmountInput{
				Type:          model.TransactionTypeIncome,
				TotalAmount:   &total,
				TaxPercentage: tax,
			}, copBank(0), nil)
			if err != nil {
				t.Fatalf("base=%d tax=%d: %v", base, tax, err)
			}
			if out.Base != base {
				t.Errorf("base=%d tax=%d: re-derived base = %d", base, tax, out.Base)
			}
			if out.Base+out.Taxed != total {
				t.Errorf("base=%d tax=%d: base+taxed = %d, want %d", base, tax, out.Base+out.Taxed, total)
			}
		}
	}
}

func TestDeriveAmountsInputValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    AmountInput
		field string
	}{
		{"both amounts", AmountInput{Type: 2, BaseAmount: int64Ptr(100), TotalAmount: int64Ptr(100)}, "base_amount"},
		{"neither amount", AmountInput{Type: 2}, "base_amount"},
		{"zero base", AmountInput{Type: 2, BaseAmount: int64Ptr(0)}, "base_amount"},
		{"negative total", AmountInput{Type: 2, TotalAmount: int64Ptr(-5)}, "total_amount"},
		{"tax too high", AmountInput{Type: 2, BaseAmount: int64Ptr(100), TaxPercentage: 31}, "tax_percentage"},
		{"tax negative", AmountInput{Type: 2, BaseAmount: int64Ptr(100), TaxPercentage: -1}, "tax_percentage"},
		{"bad type", AmountInput{Type: 9, BaseAmount: int64Ptr(100)}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAmounts(tt.in, copBank(1000000), nil)
			ve, ok := err.(*model.ValidationError)
			if !ok {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestGMFApplies(t *testing.T) {
	exempt := copBank(0)
	exempt.GMFExempt = true
	usd := copBank(0)
	usd.Currency = "USD"

	tests := []struct {
		name   string
		txType int
		origin *model.Account
		want   bool
	}{
		{"expense from bank", model.TransactionTypeExpense, copBank(0), true},
		{"transfer from bank", model.TransactionTypeTransfer, copBank(0), true},
		{"income", model.TransactionTypeIncome, copBank(0), false},
		{"saving", model.TransactionTypeSaving, copBank(0), false},
		{"exempt account", model.TransactionTypeExpense, exempt, false},
		{"credit card origin", model.TransactionTypeExpense, creditCard(0, 100), false},
		{"non-COP account", model.TransactionTypeExpense, usd, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GMFApplies(tt.txType, tt.origin); got != tt.want {
				t.Errorf("GMFApplies = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreditCardSplit(t *testing.T) {
	card := creditCard(-30000000, 100000000)
	origin := copBank(50000000)
	origin.GMFExempt = true

	tests := []struct {
		name         string
		capital      *int64
		interest     *int64
		wantCapital  int64
		wantInterest int64
		wantErr      bool
	}{
		{"neither given", nil, nil, 10000000, 0, false},
		{"capital only", int64Ptr(8000000), nil, 8000000, 2000000, false},
		{"interest only", nil, int64Ptr(2000000), 8000000, 2000000, false},
		{"both consistent", int64Ptr(8000000), int64Ptr(2000000), 8000000, 2000000, false},
		{"both inconsistent", int64Ptr(8000000), int64Ptr(3000000), 0, 0, true},
		{"negative capital", int64Ptr(-1), nil, 0, 0, true},
		{"capital above total", int64Ptr(10000001), nil, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DeriveAmounts(AmountInput{
				Type:           model.TransactionTypeTransfer,
				TotalAmount:    int64Ptr(10000000),
				CapitalAmount:  tt.capital,
				InterestAmount: tt.interest,
			}, origin, card)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DeriveAmounts: %v", err)
			}
			if out.Capital != tt.wantCapital || out.Interest != tt.wantInterest {
				t.Errorf("split = (%d, %d), want (%d, %d)", out.Capital, out.Interest, tt.wantCapital, tt.wantInterest)
			}
			if out.Capital+out.Interest != out.Total {
				t.Errorf("capital+interest = %d, want total %d", out.Capital+out.Interest, out.Total)
			}
		})
	}
}

func TestCheckSufficiency(t *testing.T) {
	if err := CheckSufficiency(copBank(10000000), 11947600); err == nil {
		t.Error("expected insufficient balance error")
	}
	if err := CheckSufficiency(copBank(20000000), 11947600); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// Cards may go negative down to the limit but not past it.
	if err := CheckSufficiency(creditCard(-9000000, 10000000), 1000000); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
	if err := CheckSufficiency(creditCard(-9000000, 10000000), 1000001); err == nil {
		t.Error("expected credit limit error")
	}
}

func TestValidateShape(t *testing.T) {
	origin := copBank(0)
	dest := creditCard(0, 100)
	income := &model.Category{ID: 1, Type: model.CategoryTypeIncome}
	expense := &model.Category{ID: 2, Type: model.CategoryTypeExpense}

	tests := []struct {
		name     string
		txType   int
		dest     *model.Account
		category *model.Category
		wantErr  bool
	}{
		{"income ok", model.TransactionTypeIncome, nil, income, false},
		{"income wrong category type", model.TransactionTypeIncome, nil, expense, true},
		{"income missing category", model.TransactionTypeIncome, nil, nil, true},
		{"income with destination", model.TransactionTypeIncome, dest, income, true},
		{"expense ok", model.TransactionTypeExpense, nil, expense, false},
		{"expense wrong category type", model.TransactionTypeExpense, nil, income, true},
		{"transfer ok", model.TransactionTypeTransfer, dest, nil, false},
		{"transfer missing destination", model.TransactionTypeTransfer, nil, nil, true},
		{"transfer self", model.TransactionTypeTransfer, origin, nil, true},
		{"transfer with category", model.TransactionTypeTransfer, dest, expense, true},
		{"saving ok", model.TransactionTypeSaving, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShape(tt.txType, origin, tt.dest, tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
