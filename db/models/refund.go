package models

import (
	"time"
)

// Refund records one local refund per remote credit note. The unique
// CreditNoteID constraint is the second line of defense against duplicate
// refund webhooks.
type Refund struct {
	ID           int64     `json:"id" bun:",pk,autoincrement"`
	OrderID      int64     `json:"order_id" bun:",notnull"`
	Order        *Order    `json:"-" bun:"rel:belongs-to,join:order_id=id"`
	Amount       float64   `json:"amount"`
	CreditNoteID string    `json:"credit_note_id" bun:",notnull,unique"`
	Note         string    `json:"note,omitempty" bun:",nullzero"`
	CreatedAt    time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
