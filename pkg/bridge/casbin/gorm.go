package casbin

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// NewGormEnforcer builds an enforcer whose policies live in the
// database. The adapter creates the casbin_rule table on first use.
func NewGormEnforcer(db *gorm.DB, modelPath string) (*casbin.Enforcer, error) {
	a, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create gorm adapter: %w", err)
	}

	e, err := casbin.NewEnforcer(modelPath, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	return e, nil
}

// NewGormStrategy builds a Strategy over a database-backed enforcer.
func NewGormStrategy(db *gorm.DB, modelPath string, opts ...Option) (*Strategy, error) {
	e, err := NewGormEnforcer(db, modelPath)
	if err != nil {
		return nil, err
	}
	return NewStrategy(e, opts...), nil
}
