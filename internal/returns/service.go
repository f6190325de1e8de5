package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	msgNotEligible   = "This order is not eligible for return"
	maxReasonLength  = 1000
	msgRequestFailed = "Failed to request return"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the return workflow.
type Service interface {
	RequestReturn(ctx context.Context, identity *auth.Identity, orderID uuid.UUID, items []ReturnLine, reason string) (*ReturnDTO, error)
	UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refundAmount *decimal.Decimal) (*ReturnDTO, error)
	List(ctx context.Context, status *enums.ReturnStatus) ([]ReturnDTO, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	outbox outbox.Emitter
	logg   *logger.Logger
}

func NewService(tx txRunner, repo Repository, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{tx: tx, repo: repo, outbox: emitter, logg: logg}, nil
}

// RequestReturn opens a return against one of the caller's returnable orders.
func (s *service) RequestReturn(ctx context.Context, identity *auth.Identity, orderID uuid.UUID, items []ReturnLine, reason string) (*ReturnDTO, error) {
	if identity == nil || identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is too long")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var created models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderForUser(ctx, orderID, identity.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return err
		}
		if !order.IsReturnable {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgNotEligible)
		}

		claimed, err := repo.ReturnedQuantities(ctx, order.ID)
		if err != nil {
			return err
		}
		requested, err := validateLines(order.Items, claimed, items)
		if err != nil {
			return err
		}

		created = models.Return{
			OrderID: order.ID,
			Status:  enums.ReturnStatusRequested,
			Reason:  reason,
		}
		for _, line := range items {
			created.Items = append(created.Items, models.ReturnItem{
				OrderItemID: line.OrderItemID,
				Quantity:    line.Quantity,
			})
		}
		if err := repo.Create(ctx, &created); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturn,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: identity.UserID, Role: string(identity.Role)},
			Data: payloads.ReturnRequestedEvent{
				ReturnID: created.ID,
				OrderID:  order.ID,
				Reason:   reason,
				Lines:    requested,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, msgRequestFailed)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrder(ctx, orderID.String())
		s.logg.Info(s.logg.WithField(logCtx, "return_id", created.ID.String()), "return requested")
	}
	dto := mapReturn(created, nil)
	return &dto, nil
}

// validateLines checks every line references an item of the order and that
// no item is returned more often than it was bought.
func validateLines(orderItems []models.OrderItem, claimed map[uuid.UUID]int, lines []ReturnLine) ([]payloads.ReturnRequestedLine, error) {
	purchased := make(map[uuid.UUID]int, len(orderItems))
	for _, item := range orderItems {
		purchased[item.ID] = item.Quantity
	}

	wanted := make(map[uuid.UUID]int, len(lines))
	out := make([]payloads.ReturnRequestedLine, 0, len(lines))
	for i, line := range lines {
		details := map[string]any{"line": i, "order_item_id": line.OrderItemID.String()}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").WithDetails(details)
		}
		bought, ok := purchased[line.OrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to this order").WithDetails(details)
		}
		wanted[line.OrderItemID] += line.Quantity
		if wanted[line.OrderItemID]+claimed[line.OrderItemID] > bought {
			details["purchased"] = bought
			details["already_returned"] = claimed[line.OrderItemID]
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "return quantity exceeds purchased quantity").WithDetails(details)
		}
		out = append(out, payloads.ReturnRequestedLine{OrderItemID: line.OrderItemID, Quantity: line.Quantity})
	}
	return out, nil
}

// UpdateStatus applies a review decision or refund. Re-applying the current
// status is a no-op. Refunds never restock inventory.
func (s *service) UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refundAmount *decimal.Decimal) (*ReturnDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	if refundAmount != nil {
		if status != enums.ReturnStatusRefunded {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount only applies to REFUNDED")
		}
		if refundAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must not be negative")
		}
	}

	var result *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, returnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
			}
			return err
		}
		if current.Status == status {
			result = current
			return nil
		}
		if !current.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move return from %s to %s", current.Status, status)).
				WithDetails(map[string]any{"from": current.Status, "to": status})
		}

		if refundAmount != nil {
			summaries, err := repo.OrderSummaries(ctx, []uuid.UUID{current.OrderID})
			if err != nil {
				return err
			}
			if summary, ok := summaries[current.OrderID]; ok && refundAmount.GreaterThan(summary.TotalAmount) {
				return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
			}
		}

		if err := repo.UpdateStatus(ctx, returnID, status, refundAmount); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnStatusChanged,
			AggregateType: enums.AggregateReturn,
			AggregateID:   returnID,
			Actor:         outbox.ActorFromContext(ctx),
			Data: payloads.ReturnStatusChangedEvent{
				ReturnID:       returnID,
				OrderID:        current.OrderID,
				PreviousStatus: current.Status,
				Status:         status,
				RefundAmount:   refundAmount,
			},
		}); err != nil {
			return err
		}
		result, err = repo.FindByID(ctx, returnID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update return status")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"return_id": returnID.String(),
			"status":    status,
		})
		s.logg.Info(logCtx, "return status updated")
	}
	dto := mapReturn(*result, nil)
	return &dto, nil
}

func (s *service) List(ctx context.Context, status *enums.ReturnStatus) ([]ReturnDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}

	orderIDs := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.OrderID]; ok {
			continue
		}
		seen[row.OrderID] = struct{}{}
		orderIDs = append(orderIDs, row.OrderID)
	}
	summaries, err := s.repo.OrderSummaries(ctx, orderIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return orders")
	}

	out := make([]ReturnDTO, 0, len(rows))
	for _, row := range rows {
		var summary *orderSummary
		if found, ok := summaries[row.OrderID]; ok {
			summary = &found
		}
		out = append(out, mapReturn(row, summary))
	}
	return out, nil
}
