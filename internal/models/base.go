package models

import (
	"time"

	"github.com/Ralph2001/marketplace/internal/utils"
)

// IBase is implemented by every persisted model so generic persistence
// helpers can regenerate IDs on duplicate-key retries.
type IBase interface {
	GetID() utils.ShortID
	SetID(utils.ShortID)
	GetCreatedAt() time.Time
	SetCreatedAt(time.Time)
}

// Base carries the fields shared by all persisted documents. The raw _id is
// never exposed over JSON; models that need a public identifier expose a
// derived string field instead.
type Base struct {
	ID        utils.ShortID `bson:"_id" json:"-"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

func (b *Base) GetID() utils.ShortID   { return b.ID }
func (b *Base) SetID(id utils.ShortID) { b.ID = id }

func (b *Base) GetCreatedAt() time.Time  { return b.CreatedAt }
func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }
