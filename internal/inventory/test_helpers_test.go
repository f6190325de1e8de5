package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
	err    error
}

func (e *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if e.err != nil {
		return e.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(
		&models.Location{},
		&models.Product{},
		&models.ProductVariant{},
		&models.InventoryRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestLedger(t *testing.T, conn *gorm.DB, policy LocationPolicy) (*Ledger, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	ledger, err := NewLedger(LedgerParams{
		Repo:              NewRepository(conn),
		Tx:                testTxRunner{db: conn},
		Policy:            policy,
		Outbox:            emitter,
		LowStockThreshold: 10,
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger, emitter
}

type seededCatalog struct {
	Variant   models.ProductVariant
	Locations []models.Location
}

func seedCatalog(t *testing.T, conn *gorm.DB, locations int) seededCatalog {
	t.Helper()
	product := models.Product{Name: "Trail Runner", Images: []string{}}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{ProductID: product.ID, Size: "42", Color: "black"}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	seeded := seededCatalog{Variant: variant}
	for i := 0; i < locations; i++ {
		loc := models.Location{Name: "Location " + string(rune('A'+i))}
		if err := conn.Create(&loc).Error; err != nil {
			t.Fatalf("seed location: %v", err)
		}
		seeded.Locations = append(seeded.Locations, loc)
	}
	return seeded
}

func seedRecord(t *testing.T, conn *gorm.DB, locationID, variantID uuid.UUID, qty int) models.InventoryRecord {
	t.Helper()
	record := models.InventoryRecord{LocationID: locationID, VariantID: variantID, Quantity: qty}
	if err := conn.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return record
}

func reloadQuantity(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var record models.InventoryRecord
	if err := conn.First(&record, "id = ?", id).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	return record.Quantity
}
