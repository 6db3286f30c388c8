package addresses

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("address not found")
	ErrDefaultNotDeleted = errors.New("the default address cannot be deleted")
	QueryTimeoutDuration = time.Second * 5
)

type Address struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ZipCode       string    `json:"zip_code"`
	Address       string    `json:"address"`
	AddressDetail *string   `json:"address_detail,omitempty"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Input struct {
	ZipCode       string
	Address       string
	AddressDetail *string
	IsDefault     bool
}
