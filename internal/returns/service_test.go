package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type returnsEnv struct {
	conn  *gorm.DB
	svc   Service
	user  models.User
	order models.Order
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

func newReturnsEnv(t *testing.T) *returnsEnv {
	t.Helper()
	dsn := "file:returns_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.Return{},
		&models.ReturnItem{},
		&models.OutboxEvent{},
	))

	user := models.User{Name: "Buyer", Email: "buyer@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(&user).Error)

	order := models.Order{
		UserID:        &user.ID,
		Status:        enums.OrderStatusDelivered,
		PaymentStatus: enums.PaymentStatusPaid,
		PaymentMethod: enums.PaymentMethodOnline,
		OrderType:     enums.OrderTypeSelf,
		IsReturnable:  true,
		TotalAmount:   decimal.RequireFromString("30.00"),
		Items: []models.OrderItem{
			{VariantID: uuid.New(), LineNo: 0, Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{VariantID: uuid.New(), LineNo: 1, Quantity: 1, Price: decimal.RequireFromString("10.00")},
		},
	}
	require.NoError(t, conn.Create(&order).Error)

	svc, err := NewService(db.NewFromConn(conn), NewRepository(conn), outbox.NewWriter(outbox.NewStore(conn), nil), nil)
	require.NoError(t, err)
	return &returnsEnv{conn: conn, svc: svc, user: user, order: order}
}

func (e *returnsEnv) identity() *auth.Identity {
	return &auth.Identity{UserID: e.user.ID, Email: e.user.Email, Role: enums.UserRoleCustomer}
}

func (e *returnsEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.conn.Model(model).Count(&n).Error)
	return n
}

func TestRequestReturnCreatesReturnAndItems(t *testing.T) {
	env := newReturnsEnv(t)

	ret, err := env.svc.RequestReturn(context.Background(), env.identity(), env.order.ID, []ReturnLine{
		{OrderItemID: env.order.Items[0].ID, Quantity: 1},
	}, "  too small ")
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusRequested, ret.Status)
	require.Equal(t, "too small", ret.Reason)
	require.Len(t, ret.Items, 1)

	require.EqualValues(t, 1, env.count(t, &models.Return{}))
	require.EqualValues(t, 1, env.count(t, &models.ReturnItem{}))

	var event models.OutboxEvent
	require.NoError(t, env.conn.First(&event).Error)
	require.Equal(t, enums.EventReturnRequested, event.EventType)
	require.Equal(t, ret.ID, event.AggregateID)

	var order models.Order
	require.NoError(t, env.conn.First(&order, "id = ?", env.order.ID).Error)
	require.True(t, order.IsReturnable)
}

func TestRequestReturnGuards(t *testing.T) {
	env := newReturnsEnv(t)
	ctx := context.Background()
	line := []ReturnLine{{OrderItemID: env.order.Items[0].ID, Quantity: 1}}

	_, err := env.svc.RequestReturn(ctx, nil, env.order.ID, line, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	stranger := &auth.Identity{UserID: uuid.New()}
	_, err = env.svc.RequestReturn(ctx, stranger, env.order.ID, line, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, line, " ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, nil, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, []ReturnLine{{OrderItemID: uuid.New(), Quantity: 1}}, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, []ReturnLine{{OrderItemID: env.order.Items[1].ID, Quantity: 2}}, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.Zero(t, env.count(t, &models.Return{}))
}

func TestRequestReturnRejectsNonReturnableOrder(t *testing.T) {
	env := newReturnsEnv(t)
	require.NoError(t, env.conn.Model(&models.Order{}).Where("id = ?", env.order.ID).Update("is_returnable", false).Error)

	_, err := env.svc.RequestReturn(context.Background(), env.identity(), env.order.ID,
		[]ReturnLine{{OrderItemID: env.order.Items[0].ID, Quantity: 1}}, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, msgNotEligible, pkgerrors.As(err).Message())
}

func TestRequestReturnCountsEarlierReturns(t *testing.T) {
	env := newReturnsEnv(t)
	ctx := context.Background()
	itemID := env.order.Items[0].ID

	first, err := env.svc.RequestReturn(ctx, env.identity(), env.order.ID, []ReturnLine{{OrderItemID: itemID, Quantity: 2}}, "first")
	require.NoError(t, err)

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, []ReturnLine{{OrderItemID: itemID, Quantity: 1}}, "second")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.UpdateStatus(ctx, first.ID, enums.ReturnStatusRejected, nil)
	require.NoError(t, err)

	_, err = env.svc.RequestReturn(ctx, env.identity(), env.order.ID, []ReturnLine{{OrderItemID: itemID, Quantity: 1}}, "third")
	require.NoError(t, err)
}

func TestRequestReturnRollsBackOnEmitFailure(t *testing.T) {
	env := newReturnsEnv(t)
	svc, err := NewService(db.NewFromConn(env.conn), NewRepository(env.conn), failingEmitter{}, nil)
	require.NoError(t, err)

	_, err = svc.RequestReturn(context.Background(), env.identity(), env.order.ID,
		[]ReturnLine{{OrderItemID: env.order.Items[0].ID, Quantity: 1}}, "reason")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	require.Zero(t, env.count(t, &models.Return{}))
	require.Zero(t, env.count(t, &models.ReturnItem{}))
}

func TestUpdateStatusTransitions(t *testing.T) {
	env := newReturnsEnv(t)
	ctx := context.Background()
	ret, err := env.svc.RequestReturn(ctx, env.identity(), env.order.ID,
		[]ReturnLine{{OrderItemID: env.order.Items[0].ID, Quantity: 1}}, "damaged")
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusRefunded, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	approved, err := env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusApproved, nil)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusApproved, approved.Status)

	events := env.count(t, &models.OutboxEvent{})
	again, err := env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusApproved, nil)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusApproved, again.Status)
	require.Equal(t, events, env.count(t, &models.OutboxEvent{}))

	tooMuch := decimal.RequireFromString("30.01")
	_, err = env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusRefunded, &tooMuch)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	refund := decimal.RequireFromString("10.00")
	refunded, err := env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusRefunded, &refund)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundAmount)
	require.True(t, refunded.RefundAmount.Equal(refund))

	_, err = env.svc.UpdateStatus(ctx, ret.ID, enums.ReturnStatusRejected, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusValidation(t *testing.T) {
	env := newReturnsEnv(t)
	ctx := context.Background()

	_, err := env.svc.UpdateStatus(ctx, uuid.New(), enums.ReturnStatus("LOST"), nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	refund := decimal.NewFromInt(1)
	_, err = env.svc.UpdateStatus(ctx, uuid.New(), enums.ReturnStatusApproved, &refund)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.UpdateStatus(ctx, uuid.New(), enums.ReturnStatusApproved, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListIncludesOrderContext(t *testing.T) {
	env := newReturnsEnv(t)
	ctx := context.Background()
	_, err := env.svc.RequestReturn(ctx, env.identity(), env.order.ID,
		[]ReturnLine{{OrderItemID: env.order.Items[1].ID, Quantity: 1}}, "wrong color")
	require.NoError(t, err)

	list, err := env.svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "buyer@example.com", *list[0].CustomerEmail)
	require.True(t, list[0].OrderTotal.Equal(decimal.NewFromInt(30)))

	approved := enums.ReturnStatusApproved
	filtered, err := env.svc.List(ctx, &approved)
	require.NoError(t, err)
	require.Empty(t, filtered)
}
