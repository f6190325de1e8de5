package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type staticIdentity struct {
	identity *auth.Identity
	err      error
}

func (s staticIdentity) Resolve(context.Context) (*auth.Identity, error) {
	return s.identity, s.err
}

type recordedPlacement struct {
	Channel string
	Outcome string
}

type fakePlacementMetrics struct {
	mu       sync.Mutex
	observed []recordedPlacement
	units    int
}

func (f *fakePlacementMetrics) Observe(channel, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, recordedPlacement{Channel: channel, Outcome: outcome})
}

func (f *fakePlacementMetrics) AddUnits(_ string, units int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units += units
}

type failingEmitter struct {
	err error
}

func (f failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return f.err
}

type testEnv struct {
	conn     *gorm.DB
	client   *db.Client
	repo     Repository
	ledger   *inventory.Ledger
	emitter  outbox.Emitter
	metrics  *fakePlacementMetrics
	product  models.Product
	variants map[string]models.ProductVariant
	places   map[string]models.Location
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
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
		&models.User{},
		&models.Location{},
		&models.Product{},
		&models.ProductVariant{},
		&models.InventoryRecord{},
		&models.Order{},
		&models.OrderItem{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := newTestDB(t)
	client := db.NewFromConn(conn)
	emitter := outbox.NewWriter(outbox.NewStore(conn), nil)

	ledger, err := inventory.NewLedger(inventory.LedgerParams{
		Repo:              inventory.NewRepository(conn),
		Tx:                client,
		Outbox:            emitter,
		LowStockThreshold: 10,
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	env := &testEnv{
		conn:     conn,
		client:   client,
		repo:     NewRepository(conn),
		ledger:   ledger,
		emitter:  emitter,
		metrics:  &fakePlacementMetrics{},
		variants: map[string]models.ProductVariant{},
		places:   map[string]models.Location{},
	}

	env.product = models.Product{Name: "Canvas Sneaker", Images: []string{}}
	if err := conn.Create(&env.product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	for _, name := range []string{"V1", "V2"} {
		variant := models.ProductVariant{ProductID: env.product.ID, Size: "M", Color: name}
		if err := conn.Create(&variant).Error; err != nil {
			t.Fatalf("seed variant: %v", err)
		}
		env.variants[name] = variant
	}
	for _, name := range []string{"W1", "L1", "L2"} {
		loc := models.Location{Name: name}
		if err := conn.Create(&loc).Error; err != nil {
			t.Fatalf("seed location: %v", err)
		}
		env.places[name] = loc
	}
	return env
}

func (e *testEnv) placement(t *testing.T, identity IdentityResolver) *PlacementService {
	t.Helper()
	if identity == nil {
		identity = staticIdentity{}
	}
	svc, err := NewPlacementService(PlacementParams{
		Tx:       e.client,
		Repo:     e.repo,
		Ledger:   e.ledger,
		Identity: identity,
		Outbox:   e.emitter,
		Metrics:  e.metrics,
		NewRef:   func() string { return "fixed" },
	})
	if err != nil {
		t.Fatalf("new placement service: %v", err)
	}
	return svc
}

func (e *testEnv) stock(t *testing.T, location, variant string, qty int) models.InventoryRecord {
	t.Helper()
	record := models.InventoryRecord{
		LocationID: e.places[location].ID,
		VariantID:  e.variants[variant].ID,
		Quantity:   qty,
	}
	if err := e.conn.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return record
}

func (e *testEnv) quantity(t *testing.T, recordID uuid.UUID) int {
	t.Helper()
	var record models.InventoryRecord
	if err := e.conn.First(&record, "id = ?", recordID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	return record.Quantity
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := e.conn.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
