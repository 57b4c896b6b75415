// Package store holds the GORM repositories. Every tenant-owned query is
// narrowed by tenant_id here, so callers cannot reach another tenant's rows.
package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a normalised page request
type Page struct {
	Page     int
	PageSize int
}

// NewPage clamps page to >= 1 and pageSize to 1..MaxPageSize, defaulting to DefaultPageSize
func NewPage(page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Page{Page: page, PageSize: pageSize}
}

// Offset is the number of rows skipped before this page
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Result is one page of a list together with the unpaged total
type Result[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// DateRange is an inclusive range of calendar days. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// apply narrows q to rows whose column falls on or between the two days
func (r DateRange) apply(q *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", startOfDay(r.From))
	}
	if !r.To.IsZero() {
		q = q.Where(column+" < ?", startOfDay(r.To).AddDate(0, 0, 1))
	}
	return q
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// paginate counts the filtered query then loads one page of it.
// Preloads only apply to the page load, never to the count.
func paginate[T any](q *gorm.DB, page Page, order string, preloads ...string) (*Result[T], error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, page.PageSize)
	if total > 0 {
		find := q.Order(order).Offset(page.Offset()).Limit(page.PageSize)
		for _, p := range preloads {
			find = find.Preload(p)
		}
		if err := find.Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &Result[T]{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern lowercases the term, escapes LIKE wildcards and wraps it for a
// substring match. Pair it with likeCond.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// likeCond is a case-insensitive LIKE on col using backslash as the escape
func likeCond(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
}

// searchAny adds a case-insensitive substring match over the columns.
// LOWER(..) LIKE works on both Postgres and SQLite.
func searchAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(columns) == 0 {
		return q
	}
	pattern := likePattern(term)
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = likeCond(col)
		args[i] = pattern
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// tenantScope is the predicate every tenant-owned query starts from
func tenantScope(tenantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// scoped returns a context-bound query on model narrowed to the tenant
func scoped(ctx context.Context, db *gorm.DB, tenantID uint, model interface{}) *gorm.DB {
	return db.WithContext(ctx).Model(model).Scopes(tenantScope(tenantID))
}

// existsInTenant reports whether a row with id belongs to the tenant
func existsInTenant(tx *gorm.DB, model interface{}, tenantID, id uint) (bool, error) {
	var count int64
	err := tx.Model(model).Where("id = ? AND tenant_id = ?", id, tenantID).Count(&count).Error
	return count > 0, err
}
