package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) Get(ctx context.Context, id int64) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Order), args.Error(1)
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) RequireAuth(ctx context.Context, token string) (domain.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

type capturePublisher struct {
	err    error
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev domain.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	orders  *mockOrders
	auth    *mockAuth
	pub     *capturePublisher
	metrics *metrics.Metrics
	svc     *NotificatorService
}

func newFixture() *fixture {
	f := &fixture{
		orders:  new(mockOrders),
		auth:    new(mockAuth),
		pub:     &capturePublisher{},
		metrics: metrics.New(),
	}
	f.svc = NewNotificatorService(Deps{
		Orders:    f.orders,
		Auth:      f.auth,
		Publisher: f.pub,
		Metrics:   f.metrics,
		Log:       logger.Nop(),
	})
	return f
}

var admin = domain.Identity{UserID: 1, Username: "admin", SessionID: "sid-1"}

func TestGreeting(t *testing.T) {
	ev, err := newFixture().svc.Greeting("abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.EventMyResponse, ev.Name)
	assert.JSONEq(t, `{"data":"Conectado al dashboard admin. Sesión: abc123"}`, string(ev.Data))
}

func TestNotifyNewOrder(t *testing.T) {
	t.Run("broadcasts the order summary", func(t *testing.T) {
		f := newFixture()
		date := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
		f.orders.On("Get", mock.Anything, int64(42)).Return(domain.Order{
			ID:            42,
			CustomerName:  "Ana",
			CustomerPhone: "555",
			TotalAmount:   decimal.RequireFromString("25.50"),
			Status:        "pending",
			OrderDate:     date,
		}, nil)

		_, err := f.svc.NotifyNewOrder(context.Background(), 42)
		require.NoError(t, err)
		require.Len(t, f.pub.events, 1)
		assert.Equal(t, domain.EventNewOrderAlert, f.pub.events[0].Name)
		assert.JSONEq(t, `{"order_id":42,"customer_name":"Ana","customer_phone":"555",
			"total_amount":25.5,"status":"pending","order_date":"2024-05-01T12:30:00Z"}`, string(f.pub.events[0].Data))
	})

	t.Run("unknown order broadcasts nothing", func(t *testing.T) {
		f := newFixture()
		f.orders.On("Get", mock.Anything, int64(9)).Return(domain.Order{}, domain.ErrNotFound)

		_, err := f.svc.NotifyNewOrder(context.Background(), 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, f.pub.events)
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.NotifyNewOrder(context.Background(), 0)
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.orders.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("broker failure", func(t *testing.T) {
		f := newFixture()
		f.pub.err = errors.New("channel closed")
		f.orders.On("Get", mock.Anything, int64(1)).Return(domain.Order{ID: 1}, nil)

		_, err := f.svc.NotifyNewOrder(context.Background(), 1)
		assert.ErrorContains(t, err, "channel closed")
	})
}

func TestHandleStatusUpdate(t *testing.T) {
	t.Run("updates and broadcasts with the acting admin", func(t *testing.T) {
		f := newFixture()
		f.auth.On("RequireAuth", mock.Anything, "tok").Return(admin, nil)
		f.orders.On("UpdateStatus", mock.Anything, int64(7), "delivered").
			Return(domain.Order{ID: 7, Status: "delivered"}, nil)

		o, err := f.svc.HandleStatusUpdate(context.Background(), "tok", domain.StatusUpdateRequest{OrderID: 7, NewStatus: "delivered"})
		require.NoError(t, err)
		assert.Equal(t, "delivered", o.Status)

		require.Len(t, f.pub.events, 1)
		var payload domain.OrderStatusUpdated
		require.NoError(t, json.Unmarshal(f.pub.events[0].Data, &payload))
		assert.Equal(t, domain.OrderStatusUpdated{OrderID: 7, NewStatus: "delivered", UpdatedBy: "admin"}, payload)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StatusUpdates.WithLabelValues("updated")))
	})

	t.Run("revoked session changes nothing", func(t *testing.T) {
		f := newFixture()
		f.auth.On("RequireAuth", mock.Anything, "old").
			Return(domain.Identity{}, errors.Join(domain.ErrUnauthorized, errors.New("session revoked")))

		_, err := f.svc.HandleStatusUpdate(context.Background(), "old", domain.StatusUpdateRequest{OrderID: 7, NewStatus: "delivered"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.pub.events)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StatusUpdates.WithLabelValues("unauthorized")))
	})

	t.Run("invalid payload changes nothing", func(t *testing.T) {
		f := newFixture()
		f.auth.On("RequireAuth", mock.Anything, "tok").Return(admin, nil)

		_, err := f.svc.HandleStatusUpdate(context.Background(), "tok", domain.StatusUpdateRequest{OrderID: 7})
		assert.ErrorIs(t, err, domain.ErrValidation)
		f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.pub.events)
	})

	t.Run("unknown order is not broadcast", func(t *testing.T) {
		f := newFixture()
		f.auth.On("RequireAuth", mock.Anything, "tok").Return(admin, nil)
		f.orders.On("UpdateStatus", mock.Anything, int64(99), "delivered").Return(domain.Order{}, domain.ErrNotFound)

		_, err := f.svc.HandleStatusUpdate(context.Background(), "tok", domain.StatusUpdateRequest{OrderID: 99, NewStatus: "delivered"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, f.pub.events)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StatusUpdates.WithLabelValues("not_found")))
	})
}

func TestUpdateStatus_BroadcastFailureKeepsChange(t *testing.T) {
	f := newFixture()
	f.pub.err = errors.New("broker down")
	f.orders.On("UpdateStatus", mock.Anything, int64(3), "confirmed").
		Return(domain.Order{ID: 3, Status: "confirmed"}, nil)

	o, err := f.svc.UpdateStatus(context.Background(), admin, 3, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", o.Status)
}

func TestCheckSession(t *testing.T) {
	f := newFixture()
	f.auth.On("RequireAuth", mock.Anything, "tok").Return(admin, nil)
	f.auth.On("RequireAuth", mock.Anything, "gone").Return(domain.Identity{}, domain.ErrUnauthorized)

	assert.NoError(t, f.svc.CheckSession(context.Background(), "tok"))
	assert.ErrorIs(t, f.svc.CheckSession(context.Background(), "gone"), domain.ErrUnauthorized)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
