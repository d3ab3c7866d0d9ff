package gormstore

import "gorm.io/gorm"

type cond struct {
	query string
	args  []any
}

// Where accumulates query refinements and applies them to a gorm handle.
// Filters are exact column matches; Q adds raw conditions; offset and
// limit window the result.
type Where struct {
	offset  int
	limit   int
	filters map[string]any
	conds   []cond
}

// WhereOption configures a Where.
type WhereOption func(*Where)

// WithOffset skips the first n rows.
func WithOffset(n int) WhereOption {
	return func(w *Where) { w.offset = n }
}

// WithLimit caps the result at n rows. Zero or negative means no cap.
func WithLimit(n int) WhereOption {
	return func(w *Where) { w.limit = n }
}

// WithPage windows by 1-based page number and page size.
func WithPage(page, size int) WhereOption {
	return func(w *Where) {
		if page < 1 {
			page = 1
		}
		w.offset = (page - 1) * size
		w.limit = size
	}
}

// WithFilter adds exact column matches.
func WithFilter(filters map[string]any) WhereOption {
	return func(w *Where) {
		for k, v := range filters {
			w.filters[k] = v
		}
	}
}

// NewWhere builds a Where from options.
func NewWhere(opts ...WhereOption) *Where {
	w := &Where{filters: make(map[string]any)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// F is shorthand for a Where with a single exact filter.
func F(key string, value any) *Where {
	return NewWhere().Filter(key, value)
}

// Filter adds an exact column match and returns the Where for chaining.
func (w *Where) Filter(key string, value any) *Where {
	w.filters[key] = value
	return w
}

// Q adds a raw condition with placeholder args.
func (w *Where) Q(query string, args ...any) *Where {
	w.conds = append(w.conds, cond{query: query, args: args})
	return w
}

// Where applies the accumulated refinements to the handle.
func (w *Where) Where(tx *gorm.DB) *gorm.DB {
	if len(w.filters) > 0 {
		tx = tx.Where(map[string]any(w.filters))
	}
	for _, c := range w.conds {
		tx = tx.Where(c.query, c.args...)
	}
	if w.offset > 0 {
		tx = tx.Offset(w.offset)
	}
	if w.limit > 0 {
		tx = tx.Limit(w.limit)
	}
	return tx
}
