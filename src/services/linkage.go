package services

import (
	"database/sql"
	"time"

	"github.com/username/finanzas/backend/src/model"
	"github.com/username/finanzas/backend/src/processors"
)

// PaymentLinkageHandler keeps bill and SOAT payment links consistent
// with the ledger: when a payment transaction is deleted, the linked
// record reverts to its unpaid status.
type PaymentLinkageHandler struct {
	db       *sql.DB
	notifier *NotificationService
}

func NewPaymentLinkageHandler(db *sql.DB, notifier *NotificationService) *PaymentLinkageHandler {
	return &PaymentLinkageHandler{db: db, notifier: notifier}
}

func (h *PaymentLinkageHandler) Name() string { return "payment_linkage" }

func (h *PaymentLinkageHandler) Handle(event TransactionEvent) error {
	if event.Action != EventDeleted {
		return nil
	}
	tx := event.Tx
	today := time.Now().In(h.notifier.Location(tx.UserID))

	bill, err := model.GetBillByPaymentTransaction(h.db, tx.UserID, tx.ID)
	if err == nil {
		status, serr := processors.BillStatus(false, bill.DueDate, today)
		if serr != nil {
			return serr
		}
		if cerr := model.ClearBillPayment(h.db, tx.UserID, bill.ID, status); cerr != nil && cerr != model.ErrNotFound {
			return cerr
		}
	} else if err != model.ErrNotFound {
		return err
	}

	soat, err := model.GetSOATByPaymentTransaction(h.db, tx.UserID, tx.ID)
	if err == nil {
		days, serr := processors.DaysUntil(soat.ExpiryDate, today)
		if serr != nil {
			return serr
		}
		status := processors.SOATStatus(false, days, soat.AlertDaysBefore)
		if cerr := model.ClearSOATPayment(h.db, tx.UserID, soat.ID, status); cerr != nil && cerr != model.ErrNotFound {
			return cerr
		}
	} else if err != model.ErrNotFound {
		return err
	}

	return nil
}
