package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Subscription links a remote subscription handle to the parent order it
// was purchased on and the payment token charged on renewal.
type Subscription struct {
	ID             int64        `json:"id" bun:",pk,autoincrement"`
	Handle         string       `json:"handle" bun:",notnull,unique"`
	CustomerHandle string       `json:"customer_handle,omitempty" bun:",nullzero"`
	OrderID        int64        `json:"order_id" bun:",nullzero"`
	Order          *Order       `json:"-" bun:"rel:belongs-to,join:order_id=id"`
	PaymentTokenID int64        `json:"-" bun:",nullzero"`
	MetaToken      string       `json:"-" bun:",nullzero"`
	Active         bool         `json:"active" bun:",nullzero"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
}

func (s *Subscription) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		s.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Subscription)(nil)
