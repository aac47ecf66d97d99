package models

import (
	"time"
)

// Customer maps a remote customer handle to the local account space.
type Customer struct {
	ID        int64     `json:"id" bun:",pk,autoincrement"`
	Handle    string    `json:"handle" bun:",notnull,unique"`
	Email     string    `json:"email,omitempty" bun:",nullzero"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
