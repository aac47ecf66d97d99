package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// OrderLine belongs to exactly one Order. Settlement happens at most once
// per line, guarded by the Settled flag.
type OrderLine struct {
	ID               int64        `json:"id" bun:",pk,autoincrement"`
	OrderID          int64        `json:"order_id" bun:",notnull"`
	Order            *Order       `json:"-" bun:"rel:belongs-to,join:order_id=id"`
	Name             string       `json:"name" bun:",notnull"`
	Quantity         int          `json:"quantity" bun:",notnull"`
	UnitAmount       float64      `json:"unit_amount"` // tax inclusive
	VatRate          float64      `json:"vat_rate" bun:",nullzero"`
	LineType         string       `json:"line_type" bun:",notnull,default:'product'"`
	Virtual          bool         `json:"virtual" bun:",nullzero"`
	Downloadable     bool         `json:"downloadable" bun:",nullzero"`
	Subscription     bool         `json:"subscription" bun:",nullzero"`
	RequiresShipping bool         `json:"requires_shipping" bun:",nullzero"`
	Settled          bool         `json:"settled" bun:",nullzero"`
	SettledAmount    float64      `json:"settled_amount" bun:",nullzero"`
	RemoteLineID     string       `json:"remote_line_id,omitempty" bun:",nullzero"`
	CreatedAt        time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt        bun.NullTime `json:"updated_at"`
}

func (l *OrderLine) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		l.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*OrderLine)(nil)

// TotalAmount is the tax-inclusive line total.
func (l *OrderLine) TotalAmount() float64 {
	return l.UnitAmount * float64(l.Quantity)
}
