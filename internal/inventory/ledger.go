package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockShortage is attached to InsufficientStock errors.
type StockShortage struct {
	VariantID  uuid.UUID  `json:"variant_id"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Requested  int        `json:"requested"`
}

// Ledger is the only path that consumes or corrects stock.
type Ledger struct {
	repo      Repository
	tx        txRunner
	policy    LocationPolicy
	outbox    outbox.Emitter
	threshold int
	logg      *logger.Logger
}

// LedgerParams wires the ledger collaborators.
type LedgerParams struct {
	Repo              Repository
	Tx                txRunner
	Policy            LocationPolicy
	Outbox            outbox.Emitter
	LowStockThreshold int
	Logger            *logger.Logger
}

func NewLedger(params LedgerParams) (*Ledger, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	policy := params.Policy
	if policy == nil {
		policy = LeastExcessPolicy{}
	}
	return &Ledger{
		repo:      params.Repo,
		tx:        params.Tx,
		policy:    policy,
		outbox:    params.Outbox,
		threshold: params.LowStockThreshold,
		logg:      params.Logger,
	}, nil
}

// Policy reports the configured location policy.
func (l *Ledger) Policy() LocationPolicy {
	return l.policy
}

// FindAvailable resolves the record a line of minQty units should draw from.
// With a location only that (variant, location) record qualifies; without one
// the location policy chooses among every record holding enough stock.
func (l *Ledger) FindAvailable(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, locationID *uuid.UUID, minQty int) (*models.InventoryRecord, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if minQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	candidates, err := l.repo.WithTx(tx).LockCandidates(ctx, variantID, locationID, minQty)
	if err != nil {
		return nil, err
	}

	var chosen *models.InventoryRecord
	if locationID != nil {
		if len(candidates) > 0 {
			chosen = &candidates[0]
		}
	} else {
		chosen = l.policy.Choose(candidates, minQty)
	}
	if chosen == nil {
		return nil, insufficientStock(variantID, locationID, minQty)
	}
	return chosen, nil
}

func insufficientStock(variantID uuid.UUID, locationID *uuid.UUID, requested int) error {
	msg := fmt.Sprintf("Insufficient stock for item %s", variantID)
	if locationID != nil {
		msg += fmt.Sprintf(" at location %s", *locationID)
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(StockShortage{
		VariantID:  variantID,
		LocationID: locationID,
		Requested:  requested,
	})
}

// Decrement removes qty units from the record only while it still holds them.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	affected, err := l.repo.WithTx(tx).DecrementIfAvailable(ctx, recordID, qty)
	if err != nil {
		return err
	}
	if affected != 1 {
		return pkgerrors.New(pkgerrors.CodeConflict, "concurrent modification of inventory record").
			WithDetails(map[string]any{"record_id": recordID, "quantity": qty})
	}
	return nil
}

// SetQuantity overwrites the on-hand count of a record (restock or correction).
func (l *Ledger) SetQuantity(ctx context.Context, recordID uuid.UUID, qty int) (*models.InventoryRecord, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	var updated *models.InventoryRecord
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
			}
			return err
		}
		if _, err := repo.SetQuantity(ctx, recordID, qty); err != nil {
			return err
		}
		if err := l.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryAdjusted,
			AggregateType: enums.AggregateInventory,
			AggregateID:   recordID,
			Actor:         outbox.ActorFromContext(ctx),
			Data: payloads.InventoryAdjustedEvent{
				RecordID:         recordID,
				LocationID:       current.LocationID,
				VariantID:        current.VariantID,
				PreviousQuantity: current.Quantity,
				Quantity:         qty,
			},
		}); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, recordID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update inventory")
	}

	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"inventory_id": recordID.String(),
			"quantity":     qty,
		})
		l.logg.Info(logCtx, "inventory quantity set")
	}
	return updated, nil
}

// Seed creates or overwrites the record for a (location, variant) pair inside tx.
func (l *Ledger) Seed(ctx context.Context, tx *gorm.DB, locationID, variantID uuid.UUID, qty int) (*models.InventoryRecord, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	record := &models.InventoryRecord{
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty,
	}
	if err := l.repo.WithTx(tx).Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Ledger) List(ctx context.Context, filters ListFilters) ([]RecordView, error) {
	rows, err := l.repo.List(ctx, filters, l.threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return rows, nil
}

// LowStockCount counts records below the configured alert threshold.
func (l *Ledger) LowStockCount(ctx context.Context) (int64, error) {
	count, err := l.repo.CountBelow(ctx, l.threshold)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count low stock")
	}
	return count, nil
}
