package services

import (
	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/model"
)

type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

// TransactionEvent describes a committed transaction mutation. Prev is
// the pre-image, set only on update.
type TransactionEvent struct {
	Action EventAction
	Tx     *model.Transaction
	Prev   *model.Transaction
}

// EventHandler reacts to a committed transaction. Handlers must be
// idempotent: replay is possible during crash recovery.
type EventHandler interface {
	Name() string
	Handle(event TransactionEvent) error
}

// Dispatcher fans a transaction event out to its registered handlers,
// synchronously and in registration order. A failing or panicking handler
// is logged and never stops the remaining handlers; the originating write
// has already committed.
type Dispatcher struct {
	handlers []EventHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Register(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Dispatch(event TransactionEvent) {
	for _, h := range d.handlers {
		d.invoke(h, event)
	}
}

func (d *Dispatcher) invoke(h EventHandler, event TransactionEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.L.Error("event handler panicked",
				"handler", h.Name(), "action", event.Action, "transactionID", event.Tx.ID, "panic", r)
		}
	}()
	if err := h.Handle(event); err != nil {
		logger.L.Error("event handler failed",
			"handler", h.Name(), "action", event.Action, "transactionID", event.Tx.ID, "error", err)
	}
}
