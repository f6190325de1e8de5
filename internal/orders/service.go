package orders

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
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const dashboardRecentOrders = 5

// Service exposes order reads and the administrative order actions.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Recent(ctx context.Context) ([]OrderDTO, error)
	Stats(ctx context.Context) (Stats, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	OverridePayment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
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
		return nil, fmt.Errorf("orders repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{tx: tx, repo: repo, outbox: emitter, logg: logg}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return s.mapOrders(ctx, rows)
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return s.mapOne(ctx, *order)
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return s.mapOne(ctx, *order)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := listParams{Limit: params.Limit, Filters: filters}
	if params.Cursor != "" {
		cursor, err := pagination.Decode(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	mapped, err := s.mapOrders(ctx, rows)
	if err != nil {
		return nil, err
	}

	list := &OrderList{Orders: mapped}
	if next != nil {
		list.NextCursor = next.Encode()
	}
	return list, nil
}

func (s *service) Recent(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.Recent(ctx, dashboardRecentOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent orders")
	}
	return s.mapOrders(ctx, rows)
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order stats")
	}
	return stats, nil
}

// UpdateStatus moves an order to any known status. Setting the current status
// again changes nothing and emits nothing.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if current.Status == status {
			return nil
		}
		if _, err := repo.UpdateFields(ctx, orderID, statusUpdate(status)); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         outbox.ActorFromContext(ctx),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        orderID,
				PreviousStatus: current.Status,
				Status:         status,
			},
		})
	})
	if err != nil {
		return nil, adminError(err, "update order status")
	}

	s.logAction(ctx, orderID, "order status updated", map[string]any{"status": status})
	return s.Get(ctx, orderID)
}

// OverridePayment marks an order paid by hand and advances it to processing.
func (s *service) OverridePayment(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, orderID); err != nil {
			return notFoundOr(err, "load order")
		}
		if _, err := repo.UpdateFields(ctx, orderID, paymentOverrideUpdate()); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentOverridden,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         outbox.ActorFromContext(ctx),
			Data: payloads.OrderPaymentOverriddenEvent{
				OrderID:       orderID,
				PaymentStatus: enums.PaymentStatusPaid,
				PaymentMethod: enums.PaymentMethodManualOverride,
				Status:        enums.OrderStatusProcessing,
			},
		})
	})
	if err != nil {
		return nil, adminError(err, "override order payment")
	}

	s.logAction(ctx, orderID, "order payment overridden", nil)
	return s.Get(ctx, orderID)
}

func (s *service) logAction(ctx context.Context, orderID uuid.UUID, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrder(ctx, orderID.String())
	if len(fields) > 0 {
		logCtx = s.logg.WithFields(logCtx, fields)
	}
	s.logg.Info(logCtx, msg)
}

func (s *service) mapOne(ctx context.Context, order models.Order) (*OrderDTO, error) {
	mapped, err := s.mapOrders(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &mapped[0], nil
}

func (s *service) mapOrders(ctx context.Context, rows []models.Order) ([]OrderDTO, error) {
	variantSet := map[uuid.UUID]struct{}{}
	userSet := map[uuid.UUID]struct{}{}
	for _, order := range rows {
		if order.UserID != nil {
			userSet[*order.UserID] = struct{}{}
		}
		for _, item := range order.Items {
			variantSet[item.VariantID] = struct{}{}
		}
	}

	variants, err := s.repo.VariantInfo(ctx, keys(variantSet))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order variants")
	}
	emails, err := s.repo.UserEmails(ctx, keys(userSet))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order users")
	}

	out := make([]OrderDTO, 0, len(rows))
	for _, order := range rows {
		out = append(out, mapOrder(order, variants, emails))
	}
	return out, nil
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func adminError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, action)
}
