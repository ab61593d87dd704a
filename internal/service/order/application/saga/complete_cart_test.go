// internal/service/order/application/saga/complete_cart_test.go
package saga

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vernont/internal/locking"
	"vernont/internal/pkg/apperr"
	cartdomain "vernont/internal/service/cart/domain"
	cartport "vernont/internal/service/cart/port"
	invapp "vernont/internal/service/inventory/application"
	invdomain "vernont/internal/service/inventory/domain"
	"vernont/internal/service/order/domain"
	"vernont/internal/workflow"
)

// ---- 进程内测试替身 ----

type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, key string, wait, ttl time.Duration) (locking.Handle, error) {
	return noopHandle{key: key}, nil
}

type noopHandle struct{ key string }

func (h noopHandle) Key() string                      { return h.key }
func (h noopHandle) Release(ctx context.Context) error { return nil }

type fakeCarts struct {
	carts map[string]*cartdomain.Cart
}

func (f *fakeCarts) FindByID(ctx context.Context, id string) (*cartdomain.Cart, error) {
	cart, ok := f.carts[id]
	if !ok {
		return nil, apperr.NotFound("cart", id)
	}
	return cart, nil
}

func (f *fakeCarts) Save(ctx context.Context, cart *cartdomain.Cart) error {
	f.carts[cart.ID] = cart
	return nil
}

type fakeOrders struct {
	orders map[string]*domain.Order
}

func (f *fakeOrders) Save(ctx context.Context, order *domain.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	return order, nil
}

type fakePayments struct {
	payments  map[string]*domain.Payment
	failSaves int
}

func (f *fakePayments) Save(ctx context.Context, payment *domain.Payment) error {
	if f.failSaves > 0 {
		f.failSaves--
		return errors.New("payment store unavailable")
	}
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePayments) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment", id)
	}
	return payment, nil
}

func (f *fakePayments) FindByCart(ctx context.Context, cartID string) (*domain.Payment, error) {
	for _, payment := range f.payments {
		if payment.CartID == cartID {
			return payment, nil
		}
	}
	return nil, apperr.NotFound("payment for cart", cartID)
}

type fakeCatalog struct {
	variants map[string]*cartport.Variant
}

func (f *fakeCatalog) FindVariant(ctx context.Context, id string) (*cartport.Variant, error) {
	variant, ok := f.variants[id]
	if !ok {
		return nil, apperr.NotFound("variant", id)
	}
	return variant, nil
}

type fakeInventory struct {
	levels       map[string]*invdomain.Level
	reservations map[string]*invdomain.Reservation
}

func (s *fakeInventory) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeInventory) FindByID(ctx context.Context, id string) (*invdomain.Level, error) {
	level, ok := s.levels[id]
	if !ok {
		return nil, apperr.NotFound("inventory level", id)
	}
	return level, nil
}

func (s *fakeInventory) FindByIDForUpdate(ctx context.Context, id string) (*invdomain.Level, error) {
	return s.FindByID(ctx, id)
}

func (s *fakeInventory) FindByItem(ctx context.Context, itemID string) ([]*invdomain.Level, error) {
	var out []*invdomain.Level
	for _, level := range s.levels {
		if level.ItemID == itemID {
			out = append(out, level)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (s *fakeInventory) Save(ctx context.Context, level *invdomain.Level) error {
	s.levels[level.ID] = level
	return nil
}

type fakeInventoryReservations struct {
	store *fakeInventory
}

func (r *fakeInventoryReservations) Save(ctx context.Context, reservation *invdomain.Reservation) error {
	r.store.reservations[reservation.ID] = reservation
	return nil
}

func (r *fakeInventoryReservations) FindByID(ctx context.Context, id string) (*invdomain.Reservation, error) {
	reservation, ok := r.store.reservations[id]
	if !ok {
		return nil, apperr.NotFound("inventory reservation", id)
	}
	return reservation, nil
}

func (r *fakeInventoryReservations) FindActiveByLineItem(ctx context.Context, lineItemID string) ([]*invdomain.Reservation, error) {
	return r.filter(func(res *invdomain.Reservation) bool {
		return res.LineItemID == lineItemID
	}), nil
}

func (r *fakeInventoryReservations) FindActiveByLevelAndLineItem(ctx context.Context, levelID, lineItemID string) ([]*invdomain.Reservation, error) {
	return r.filter(func(res *invdomain.Reservation) bool {
		return res.LevelID == levelID && res.LineItemID == lineItemID
	}), nil
}

func (r *fakeInventoryReservations) filter(match func(*invdomain.Reservation) bool) []*invdomain.Reservation {
	var out []*invdomain.Reservation
	for _, res := range r.store.reservations {
		if res.IsActive() && match(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type stubGateway struct {
	authorizeErr error
	voided       int
}

func (g *stubGateway) Authorize(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (map[string]string, error) {
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	return map[string]string{"authorization_id": "auth-test"}, nil
}

func (g *stubGateway) Capture(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	return amount, nil
}

func (g *stubGateway) Void(ctx context.Context, session *domain.PaymentSession) error {
	g.voided++
	return nil
}

func (g *stubGateway) Refund(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal) error {
	return nil
}

type recordedEvent struct {
	eventType     string
	correlationID string
	payload       interface{}
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) Publish(ctx context.Context, eventType, correlationID string, payload interface{}) error {
	r.events = append(r.events, recordedEvent{eventType: eventType, correlationID: correlationID, payload: payload})
	return nil
}

func (r *eventRecorder) last() *recordedEvent {
	if len(r.events) == 0 {
		return nil
	}
	return &r.events[len(r.events)-1]
}

// ---- 测试夹具 ----

type harness struct {
	saga      *CompleteCart
	carts     *fakeCarts
	orders    *fakeOrders
	payments  *fakePayments
	inventory *fakeInventory
	gateway   *stubGateway
	events    *eventRecorder
	cart      *cartdomain.Cart
	payment   *domain.Payment
}

// newHarness 搭一个可结账的购物车：1 个行项目，数量 3，单价 10.00 GBP，
// 对应库存条目在单一库位上有 stocked 件现货。
func newHarness(t *testing.T, stocked int) *harness {
	t.Helper()

	cart := cartdomain.NewCart("cust-1", "GBP")
	cart.Email = "shopper@example.com"
	cart.ShippingMethodID = "ship-std"
	cart.AddItem("variant-1", "Tee", 3, decimal.RequireFromString("10.00"), decimal.Zero)
	cart.RecalculateTotals()

	now := time.Now()
	payment := &domain.Payment{
		ID:       "pay-1",
		CartID:   cart.ID,
		Amount:   cart.Total,
		Currency: "GBP",
		Status:   domain.SessionPending,
		Sessions: []domain.PaymentSession{
			{ID: "sess-1", PaymentID: "pay-1", Provider: "manual", Status: domain.SessionPending, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	inventory := &fakeInventory{
		levels: map[string]*invdomain.Level{
			"lvl-1": {ID: "lvl-1", ItemID: "inv-item-1", LocationID: "loc-1", Stocked: stocked},
		},
		reservations: make(map[string]*invdomain.Reservation),
	}
	ledger := invapp.NewLedger(inventory, inventory, &fakeInventoryReservations{store: inventory})

	h := &harness{
		carts:     &fakeCarts{carts: map[string]*cartdomain.Cart{cart.ID: cart}},
		orders:    &fakeOrders{orders: make(map[string]*domain.Order)},
		payments:  &fakePayments{payments: map[string]*domain.Payment{payment.ID: payment}},
		inventory: inventory,
		gateway:   &stubGateway{},
		events:    &eventRecorder{},
		cart:      cart,
		payment:   payment,
	}
	h.saga = NewCompleteCart(
		workflow.NewEngine(noopLocker{}),
		h.carts,
		h.orders,
		h.payments,
		&fakeCatalog{variants: map[string]*cartport.Variant{
			"variant-1": {
				ID:              "variant-1",
				Title:           "Tee",
				InventoryItemID: "inv-item-1",
				ManageInventory: true,
				Prices:          map[string]decimal.Decimal{"GBP": decimal.RequireFromString("10.00")},
			},
		}},
		ledger,
		h.gateway,
		h.events,
	)
	return h
}

func (h *harness) activeReservations() []*invdomain.Reservation {
	var out []*invdomain.Reservation
	for _, r := range h.inventory.reservations {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

// ---- 场景 ----

func TestCompleteCartSuccess(t *testing.T) {
	h := newHarness(t, 5)

	order, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("30.00")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)

	// 库存：3 件被占用，留下一条 ACTIVE 预留，挂在订单行上
	assert.Equal(t, 3, h.inventory.levels["lvl-1"].Reserved)
	active := h.activeReservations()
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].Quantity)
	assert.Equal(t, order.ID, active[0].OrderID)
	assert.Equal(t, order.Items[0].ID, active[0].LineItemID)

	// 购物车终态、支付已授权并挂单
	assert.NotNil(t, h.cart.CompletedAt)
	assert.Equal(t, domain.SessionAuthorized, h.payment.Status)
	assert.Equal(t, order.ID, h.payment.OrderID)

	event := h.events.last()
	require.NotNil(t, event)
	assert.Equal(t, domain.EventOrderPlaced, event.eventType)
}

func TestCompleteCartInsufficientInventoryRollsBack(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)

	var insufficient *apperr.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 3, insufficient.Requested)

	// 失败后账本不留痕迹
	assert.Zero(t, h.inventory.levels["lvl-1"].Reserved)
	assert.Empty(t, h.activeReservations())

	// 订单被补偿为 CANCELED，购物车保持 open，支付未被动过
	require.Len(t, h.orders.orders, 1)
	for _, order := range h.orders.orders {
		assert.True(t, order.IsCanceled())
	}
	assert.Nil(t, h.cart.CompletedAt)
	assert.Equal(t, domain.SessionPending, h.payment.Status)

	event := h.events.last()
	require.NotNil(t, event)
	assert.Equal(t, domain.EventCartCompletionFailed, event.eventType)
}

func TestCompleteCartAuthorizeFailureRollsBack(t *testing.T) {
	h := newHarness(t, 5)
	h.gateway.authorizeErr = &apperr.PaymentProviderError{
		Provider: "manual",
		Err:      errors.New("card declined"),
	}

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)

	var provider *apperr.PaymentProviderError
	assert.True(t, errors.As(err, &provider))

	// 预留被释放，订单被取消，购物车从未进入终态
	assert.Zero(t, h.inventory.levels["lvl-1"].Reserved)
	assert.Empty(t, h.activeReservations())
	for _, order := range h.orders.orders {
		assert.True(t, order.IsCanceled())
	}
	assert.Nil(t, h.cart.CompletedAt)
}

func TestCompleteCartSaveFailureAfterAuthorizeVoidsAtProvider(t *testing.T) {
	h := newHarness(t, 5)
	// 渠道授权成功，但随后的支付落库失败
	h.payments.failSaves = 1

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)

	// 渠道侧授权必须被作废，不能留下已授权未落库的悬挂款
	assert.Equal(t, 1, h.gateway.voided)
	assert.Equal(t, domain.SessionCanceled, h.payment.Status)

	assert.Zero(t, h.inventory.levels["lvl-1"].Reserved)
	assert.Empty(t, h.activeReservations())
	for _, order := range h.orders.orders {
		assert.True(t, order.IsCanceled())
	}
	assert.Nil(t, h.cart.CompletedAt)
}

func TestCompleteCartTwiceIsRejected(t *testing.T) {
	h := newHarness(t, 5)

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.NoError(t, err)

	// completed 检查在锁内执行，第二次结账在 validate-cart 被拒绝
	_, err = h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)
	var illegal *apperr.IllegalStateError
	assert.True(t, errors.As(err, &illegal))

	// 第一次的结果不受影响
	assert.Equal(t, 3, h.inventory.levels["lvl-1"].Reserved)
	assert.NotNil(t, h.cart.CompletedAt)
}

func TestCompleteCartEmptyCartIsRejected(t *testing.T) {
	h := newHarness(t, 5)
	h.cart.Items = nil
	h.cart.RecalculateTotals()

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)
	var validation *apperr.ValidationError
	assert.True(t, errors.As(err, &validation))

	// 校验失败发生在任何副作用之前
	assert.Empty(t, h.orders.orders)
	assert.Zero(t, h.inventory.levels["lvl-1"].Reserved)
}

func TestCompleteCartCanceledPaymentIsRejected(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.payment.Cancel())

	_, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.Error(t, err)
	assert.Empty(t, h.orders.orders)
	assert.Nil(t, h.cart.CompletedAt)
}

func TestCompleteCartSkipsUnmanagedInventory(t *testing.T) {
	h := newHarness(t, 0)
	h.saga.catalog = &fakeCatalog{variants: map[string]*cartport.Variant{
		"variant-1": {
			ID:              "variant-1",
			Title:           "Tee",
			ManageInventory: false,
			Prices:          map[string]decimal.Decimal{"GBP": decimal.RequireFromString("10.00")},
		},
	}}

	order, err := h.saga.Execute(context.Background(), h.cart.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Zero(t, h.inventory.levels["lvl-1"].Reserved)
}
