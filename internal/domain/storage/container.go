package storage

import (
	"context"
	"fmt"

	"storefront/internal/domain/addresses"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/passwordreset"
	"storefront/internal/domain/products"
	"storefront/internal/domain/qna"
	"storefront/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Container holds one repository per domain over a shared pool.
type Container struct {
	pool        *pgxpool.Pool
	Users       users.Store
	Addresses   addresses.Store
	ResetTokens passwordreset.Store
	Categories  categories.Store
	Products    products.Store
	QnA         qna.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:        db,
		Users:       users.NewRepository(db),
		Addresses:   addresses.NewRepository(db),
		ResetTokens: passwordreset.NewRepository(db),
		Categories:  categories.NewRepository(db),
		Products:    products.NewRepository(db),
		QnA:         qna.NewRepository(db),
	}
}

// Ping is used by the health endpoint.
func (c *Container) Ping(ctx context.Context) error {
	if c.pool == nil {
		return fmt.Errorf("storage: no pool configured")
	}
	return c.pool.Ping(ctx)
}
