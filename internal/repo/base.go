// Package repo holds the pieces shared by the gorm repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository runs against.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB scopes the connection to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// FindOne loads the first row matching the condition. gorm.ErrRecordNotFound
// is returned unchanged so services can map it.
func FindOne[T any](q *gorm.DB, cond string, args ...any) (*T, error) {
	var row T
	if err := q.Where(cond, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
