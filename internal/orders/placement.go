package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	msgLoginRequired   = "You must be logged in to place an online order."
	msgPlacementFailed = "order placement failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IdentityResolver returns the caller of the current request, or nil when
// the request is anonymous.
type IdentityResolver interface {
	Resolve(ctx context.Context) (*auth.Identity, error)
}

// StockLedger is the inventory surface placement consumes.
type StockLedger interface {
	FindAvailable(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, locationID *uuid.UUID, minQty int) (*models.InventoryRecord, error)
	Decrement(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, qty int) error
}

type placementMetrics interface {
	Observe(channel, outcome string, elapsed time.Duration)
	AddUnits(channel string, units int)
}

// PlacementParams wires the placement collaborators.
type PlacementParams struct {
	Tx       txRunner
	Repo     Repository
	Ledger   StockLedger
	Identity IdentityResolver
	Outbox   outbox.Emitter
	Metrics  placementMetrics
	Logger   *logger.Logger
	NewRef   func() string
}

// PlacementService turns a cart into a persisted order with matching stock
// movements, all in one transaction.
type PlacementService struct {
	tx       txRunner
	repo     Repository
	ledger   StockLedger
	identity IdentityResolver
	outbox   outbox.Emitter
	metrics  placementMetrics
	logg     *logger.Logger
	newRef   func() string
}

func NewPlacementService(params PlacementParams) (*PlacementService, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	newRef := params.NewRef
	if newRef == nil {
		newRef = uuid.NewString
	}
	return &PlacementService{
		tx:       params.Tx,
		repo:     params.Repo,
		ledger:   params.Ledger,
		identity: params.Identity,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		newRef:   newRef,
	}, nil
}

// PlaceOrder validates the cart, then writes the order, its items and the
// inventory decrements atomically. Any failure leaves no trace.
func (s *PlacementService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	start := time.Now()
	channel := input.Options.Channel()

	result, units, err := s.place(ctx, input)

	outcome := "ok"
	if err != nil {
		outcome = string(pkgerrors.As(err).Code())
	}
	if s.metrics != nil {
		s.metrics.Observe(channel, outcome, time.Since(start))
		if err == nil {
			s.metrics.AddUnits(channel, units)
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"channel":     channel,
			"line_count":  len(input.Items),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "outcome", outcome), "order placement rejected")
		} else {
			s.logg.Info(s.logg.WithOrder(logCtx, result.OrderID.String()), "order placed")
		}
	}
	return result, err
}

func (s *PlacementService) place(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, int, error) {
	total, err := validatePlacement(input)
	if err != nil {
		return nil, 0, err
	}

	identity, err := s.identity.Resolve(ctx)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgLoginRequired)
	}
	opts := input.Options
	if identity == nil && !opts.Customer.present() && opts.LocationID == nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired)
	}

	order := BuildOrder(total, opts, identity, s.newRef)
	units := 0

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if opts.LocationID != nil {
			exists, err := repo.LocationExists(ctx, *opts.LocationID)
			if err != nil {
				return err
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found").
					WithDetails(map[string]any{"location_id": opts.LocationID.String()})
			}
		}

		if err := repo.CreateOrder(ctx, &order); err != nil {
			return err
		}

		lines := make([]payloads.OrderPlacedLine, 0, len(input.Items))
		for i, line := range input.Items {
			record, err := s.ledger.FindAvailable(ctx, tx, line.VariantID, opts.LocationID, line.Quantity)
			if err != nil {
				return err
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				VariantID: line.VariantID,
				LineNo:    i,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if err := repo.CreateItem(ctx, &item); err != nil {
				return err
			}
			if err := s.ledger.Decrement(ctx, tx, record.ID, line.Quantity); err != nil {
				return err
			}

			units += line.Quantity
			lines = append(lines, payloads.OrderPlacedLine{
				OrderItemID: item.ID,
				VariantID:   line.VariantID,
				LocationID:  record.LocationID,
				Quantity:    line.Quantity,
				UnitPrice:   line.Price,
			})
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFromContext(ctx),
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				LocationID:    order.LocationID,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
				PaymentMethod: order.PaymentMethod,
				TotalAmount:   order.TotalAmount,
				Lines:         lines,
			},
		})
	})
	if err != nil {
		return nil, 0, placementError(err)
	}
	return &PlaceOrderResult{OrderID: order.ID}, units, nil
}

func placementError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	wrapped := pkgerrors.Wrap(pkgerrors.CodePersistence, err, msgPlacementFailed)
	if db.IsSerializationFailure(err) {
		wrapped = wrapped.WithDetails(map[string]any{"reason": "serialization_failure"})
	}
	return wrapped
}

// validatePlacement checks the cart shape and returns the recomputed total.
func validatePlacement(input PlaceOrderInput) (decimal.Decimal, error) {
	if len(input.Items) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	sum := decimal.Zero
	for i, line := range input.Items {
		details := map[string]any{"line": i, "variant_id": line.VariantID.String()}
		if line.VariantID == uuid.Nil {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "variant id required").WithDetails(details)
		}
		if line.Quantity <= 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").WithDetails(details)
		}
		if line.Price.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").WithDetails(details)
		}
		if !line.Price.Equal(line.Price.Round(2)) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places").WithDetails(details)
		}
		sum = sum.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if !input.TotalAmount.Round(2).Equal(sum) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "total amount does not match cart").
			WithDetails(map[string]any{
				"submitted": input.TotalAmount.StringFixed(2),
				"computed":  sum.StringFixed(2),
			})
	}

	opts := input.Options
	if opts.PaymentMethod != "" && !opts.PaymentMethod.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if opts.OrderType != "" && !opts.OrderType.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	return sum, nil
}
