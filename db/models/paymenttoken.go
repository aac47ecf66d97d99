package models

import (
	"time"
)

// PaymentToken is a reusable reference to a payment method stored at the
// processor, associated with a customer.
type PaymentToken struct {
	ID             int64     `json:"id" bun:",pk,autoincrement"`
	CustomerHandle string    `json:"customer_handle,omitempty" bun:",nullzero"`
	Token          string    `json:"token" bun:",notnull,unique"`
	CardType       string    `json:"card_type,omitempty" bun:",nullzero"`
	MaskedCard     string    `json:"masked_card,omitempty" bun:",nullzero"`
	CreatedAt      time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
