package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Order is the local payment order kept in sync with a remote invoice.
// The Handle column is the idempotent correlation key between the two.
type Order struct {
	ID                    int64        `json:"id" bun:",pk,autoincrement"`
	Number                int64        `json:"number" bun:",notnull,unique"`
	Handle                string       `json:"handle" bun:",nullzero,unique"`
	Currency              string       `json:"currency" bun:",notnull"`
	TotalAmount           float64      `json:"total_amount"`
	DiscountAmount        float64      `json:"discount_amount" bun:",nullzero"`
	ShippingAmount        float64      `json:"shipping_amount" bun:",nullzero"`
	Status                string       `json:"status" bun:",notnull"`
	StateAuthorized       bool         `json:"state_authorized" bun:",nullzero"`
	StateSettled          bool         `json:"state_settled" bun:",nullzero"`
	InstantSettled        bool         `json:"instant_settled" bun:",nullzero"`
	ShippingSettled       bool         `json:"shipping_settled" bun:",nullzero"`
	Cancelled             bool         `json:"cancelled" bun:",nullzero"`
	Locked                bool         `json:"-" bun:",nullzero"`
	StockReduced          bool         `json:"stock_reduced" bun:",nullzero"`
	SessionID             string       `json:"session_id,omitempty" bun:",nullzero"`
	CustomerHandle        string       `json:"customer_handle,omitempty" bun:",nullzero"`
	SubscriptionHandle    string       `json:"subscription_handle,omitempty" bun:",nullzero"`
	PaymentTokenID        int64        `json:"-" bun:",nullzero"`
	MetaToken             string       `json:"-" bun:",nullzero"`
	AuthorizedTransaction string       `json:"authorized_transaction,omitempty" bun:",nullzero"`
	SettledTransaction    string       `json:"settled_transaction,omitempty" bun:",nullzero"`
	CancelledTransaction  string       `json:"cancelled_transaction,omitempty" bun:",nullzero"`
	AppliedCreditNotes    []string     `json:"applied_credit_notes,omitempty" bun:",array"`
	Notes                 []string     `json:"notes,omitempty" bun:",array"`
	Lines                 []*OrderLine `json:"lines,omitempty" bun:"rel:has-many,join:id=order_id"`
	CreatedAt             time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt             bun.NullTime `json:"updated_at"`
}

func (o *Order) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		o.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Order)(nil)

// IsGatewayOrder reports whether the order was placed through the remote
// processor, i.e. has a correlation handle.
func (o *Order) IsGatewayOrder() bool {
	return o.Handle != ""
}

func (o *Order) HasAppliedCreditNote(creditNoteID string) bool {
	for _, id := range o.AppliedCreditNotes {
		if id == creditNoteID {
			return true
		}
	}
	return false
}

func (o *Order) AddNote(note string) {
	if note == "" {
		return
	}
	o.Notes = append(o.Notes, note)
}
