// Package store is the generic gorm-backed persistence used by every
// resource.
package store

import (
	"context"
	"errors"
	"fmt"

	"eshop/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope is an equality pre-filter keyed by column name. Nested routes and
// ownership rules express themselves as scopes.
type Scope map[string]any

// Changes is a partial update: plain columns plus associations to replace.
type Changes struct {
	Fields       map[string]any
	Associations map[string]any
}

func (c Changes) Empty() bool {
	return len(c.Fields) == 0 && len(c.Associations) == 0
}

type preload struct {
	name string
	args []any
}

type Repository[T any] struct {
	db       *gorm.DB
	preloads []preload
}

func NewRepository[T any](db *gorm.DB, preloads ...string) *Repository[T] {
	r := &Repository[T]{db: db}
	for _, name := range preloads {
		r.preloads = append(r.preloads, preload{name: name})
	}
	return r
}

// Preload adds an association loaded with every read, with optional gorm
// preload conditions.
func (r *Repository[T]) Preload(name string, args ...any) *Repository[T] {
	r.preloads = append(r.preloads, preload{name: name, args: args})
	return r
}

func (r *Repository[T]) DB() *gorm.DB { return r.db }

func (r *Repository[T]) withPreloads(tx *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		tx = tx.Preload(p.name, p.args...)
	}
	return tx
}

func scoped(tx *gorm.DB, scope Scope) *gorm.DB {
	if len(scope) > 0 {
		tx = tx.Where(map[string]any(scope))
	}
	return tx
}

func (r *Repository[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id uint, scope Scope) (*T, error) {
	var rec T
	err := r.withPreloads(scoped(r.db.WithContext(ctx), scope)).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %d: %w", id, err)
	}
	return &rec, nil
}

// List counts the matching rows first, then loads the requested page.
func (r *Repository[T]) List(ctx context.Context, scope Scope, f query.Features) ([]T, query.Pagination, error) {
	cols, err := query.ColumnsOf(r.db, new(T))
	if err != nil {
		return nil, query.Pagination{}, err
	}

	filtered, err := f.Filter(scoped(r.db.WithContext(ctx).Model(new(T)), scope), cols)
	if err != nil {
		return nil, query.Pagination{}, err
	}
	filtered = filtered.Session(&gorm.Session{})

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count: %w", err)
	}

	pagination := query.Paginate(f.Page, f.Limit, total)

	recs := make([]T, 0, f.Limit)
	if total > 0 {
		if err := r.withPreloads(f.Shape(filtered, cols)).Find(&recs).Error; err != nil {
			return nil, query.Pagination{}, fmt.Errorf("list: %w", err)
		}
	}

	return recs, pagination, nil
}

// Update applies changes to the scoped record and returns it reloaded.
func (r *Repository[T]) Update(ctx context.Context, id uint, scope Scope, changes Changes) (*T, error) {
	rec, err := r.FindByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes.Fields) > 0 {
			if err := tx.Model(rec).Updates(changes.Fields).Error; err != nil {
				return err
			}
		}
		for name, value := range changes.Associations {
			if err := tx.Model(rec).Association(name).Replace(value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update %d: %w", id, err)
	}

	return r.FindByID(ctx, id, nil)
}

// Delete removes the scoped record along with its owned associations.
func (r *Repository[T]) Delete(ctx context.Context, id uint, scope Scope) error {
	rec, err := r.FindByID(ctx, id, scope)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Select(clause.Associations).Delete(rec).Error; err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return nil
}
