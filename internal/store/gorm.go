package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// GormBackend runs queries directly against the hosted backend's Postgres
// database. Row-level policies do not apply on this path; the HTTP layer's role
// checks are the only gate.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend wraps db. db should be opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// where renders q's filters as one SQL condition with positional arguments.
// Column names come from repository code, never from requests.
func where(q Query) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq:
			if f.Value == nil {
				parts = append(parts, f.Column+" IS NULL")
				continue
			}
			parts = append(parts, f.Column+" = ?")
		case OpNeq:
			parts = append(parts, f.Column+" <> ?")
		case OpGte:
			parts = append(parts, f.Column+" >= ?")
		case OpLte:
			parts = append(parts, f.Column+" <= ?")
		case OpIn:
			parts = append(parts, f.Column+" IN ?")
		case OpILike:
			parts = append(parts, f.Column+" ILIKE ?")
			args = append(args, "%"+fmt.Sprint(f.Value)+"%")
			continue
		}
		args = append(args, f.Value)
	}
	return strings.Join(parts, " AND "), args
}

func (b *GormBackend) scoped(ctx context.Context, table string, q Query) *gorm.DB {
	tx := b.db.WithContext(ctx).Table(table)
	if cond, args := where(q); cond != "" {
		tx = tx.Where(cond, args...)
	}
	return tx
}

func (b *GormBackend) Select(ctx context.Context, table string, q Query, dest any) error {
	tx := b.scoped(ctx, table, q)
	for _, o := range q.Orders {
		dir := " ASC"
		if o.Desc {
			dir = " DESC"
		}
		tx = tx.Order(o.Column + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return translateGorm(tx.Find(dest).Error)
}

func (b *GormBackend) Count(ctx context.Context, table string, q Query) (int64, error) {
	var n int64
	err := b.scoped(ctx, table, q).Count(&n).Error
	return n, translateGorm(err)
}

// Insert writes values and reads the row back by id; every insert carries an id.
func (b *GormBackend) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	id, ok := values["id"]
	if !ok {
		return errors.New("insert without id")
	}
	if err := b.db.WithContext(ctx).Table(table).Create(values).Error; err != nil {
		return translateGorm(err)
	}
	return translateGorm(b.db.WithContext(ctx).Table(table).Where("id = ?", id).Take(dest).Error)
}

func (b *GormBackend) Update(ctx context.Context, table string, q Query, values map[string]any) (int64, error) {
	res := b.scoped(ctx, table, q).Updates(values)
	return res.RowsAffected, translateGorm(res.Error)
}

func (b *GormBackend) Delete(ctx context.Context, table string, q Query) (int64, error) {
	cond, args := where(q)
	if cond == "" {
		return 0, errors.New("refusing to delete without a filter")
	}
	res := b.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE "+cond, args...)
	return res.RowsAffected, translateGorm(res.Error)
}

func translateGorm(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}
