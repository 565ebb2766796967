// Package orm is a thin fluent layer over GORM used by the repositories. It
// normalises "not found" into ErrNotFound and can read through pkg/cache.
//
//	var products []models.Product
//	err := orm.Use(db).WithContext(ctx).
//	    Model(&models.Product{}).
//	    Where("category = ?", "candles").
//	    Latest("created_at").
//	    Limit(100).
//	    Cache("products:candles", time.Minute, &products)
package orm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/perennia/storefront/pkg/cache"
	"github.com/perennia/storefront/pkg/database"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("orm: record not found")

type Query struct {
	db  *gorm.DB
	ctx context.Context
}

// DB starts a query on the process-wide connection.
func DB() *Query {
	return Use(database.DB)
}

// Use starts a query on db, which may be a transaction.
func Use(db *gorm.DB) *Query {
	return &Query{db: db, ctx: context.Background()}
}

func (q *Query) with(db *gorm.DB) *Query {
	return &Query{db: db, ctx: q.ctx}
}

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx), ctx: ctx}
}

func (q *Query) Model(v interface{}) *Query {
	return q.with(q.db.Model(v))
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return q.with(q.db.Where(query, args...))
}

// WhereIf applies the condition only when ok is true.
func (q *Query) WhereIf(ok bool, query interface{}, args ...interface{}) *Query {
	if !ok {
		return q
	}
	return q.Where(query, args...)
}

func (q *Query) Order(value string) *Query {
	return q.with(q.db.Order(value))
}

// Latest orders by column, newest first.
func (q *Query) Latest(column string) *Query {
	return q.Order(column + " DESC")
}

func (q *Query) Limit(n int) *Query {
	return q.with(q.db.Limit(n))
}

func (q *Query) Preload(assoc string, args ...interface{}) *Query {
	return q.with(q.db.Preload(assoc, args...))
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

// First loads the first matching row into dest, or returns ErrNotFound.
func (q *Query) First(dest interface{}) error {
	err := q.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Exists() (bool, error) {
	n, err := q.Limit(1).Count()
	return n > 0, err
}

// Cache serves dest from the cache under key, loading and storing it on a
// miss. A failed cache write is not an error.
func (q *Query) Cache(key string, ttl time.Duration, dest interface{}) error {
	if cache.Get(q.ctx, key, dest) {
		return nil
	}

	if err := q.db.Find(dest).Error; err != nil {
		return err
	}

	_ = cache.Set(q.ctx, key, dest, ttl)
	return nil
}

// GORM exposes the underlying handle for anything the fluent layer lacks.
func (q *Query) GORM() *gorm.DB { return q.db }

// Transaction runs fn in a database transaction bound to ctx. Inside fn use
// only tx: on sqlite the outer handle has a single connection.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
