package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements the loyalty stores on top of gorm
type Repository struct {
	db       *gorm.DB
	inTx     bool
	currency models.Currency
}

// Option configures a Repository
type Option func(*Repository)

// WithCurrency sets the currency used for newly created wallets
func WithCurrency(currency models.Currency) Option {
	return func(r *Repository) {
		r.currency = currency
	}
}

// New creates a new repository
func New(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db, currency: models.CurrencyUSD}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DB returns the underlying gorm handle
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// WithinTx runs fn in a database transaction. Calls made from inside an
// existing transaction join it.
func (r *Repository) WithinTx(ctx context.Context, fn func(s store.Stores) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, inTx: true, currency: r.currency})
	})
}

// forUpdate adds a row lock when running inside a transaction
func (r *Repository) forUpdate(db *gorm.DB) *gorm.DB {
	if !r.inTx {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translate maps gorm errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

var _ store.TxRunner = (*Repository)(nil)
