package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestDBBindsContext(t *testing.T) {
	conn := openDB(t)
	base := NewBase(conn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "till-3")
	scoped := base.DB(ctx)
	if scoped.Statement == nil || scoped.Statement.Context != ctx {
		t.Fatalf("expected context to flow into the statement")
	}
	if base.DB(nil) != conn {
		t.Fatalf("expected nil context to return the raw connection")
	}
}

func TestFindOne(t *testing.T) {
	conn := openDB(t)
	w := widget{ID: uuid.New(), Name: "shelf"}
	if err := conn.Create(&w).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := FindOne[widget](conn, "name = ?", "shelf")
	if err != nil || got.ID != w.ID {
		t.Fatalf("expected seeded row, got %+v err=%v", got, err)
	}

	_, err = FindOne[widget](conn, "name = ?", "missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}
