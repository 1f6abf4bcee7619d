package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/domain"
	authhandlers "restaurant-admin/internal/microservices/auth/handlers"
	authservice "restaurant-admin/internal/microservices/auth/service"
	"restaurant-admin/internal/microservices/notificator/broker"
	"restaurant-admin/internal/microservices/notificator/hub"
	"restaurant-admin/internal/microservices/notificator/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "admin_session"

// fakeAuth accepts tokens of the form "tok-<username>" until revoked.
type fakeAuth struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeAuth) Login(context.Context, string, string) (authservice.Session, error) {
	return authservice.Session{}, errors.New("not supported")
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
	return nil
}

func (f *fakeAuth) RequireAuth(_ context.Context, token string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := strings.CutPrefix(token, "tok-")
	if !ok || f.revoked[token] {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: 1, Username: name, SessionID: token}, nil
}

// memOrders is an in-memory order store.
type memOrders struct {
	mu     sync.Mutex
	orders map[int64]domain.Order
}

func (m *memOrders) Get(_ context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id int64, status string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = strings.TrimSpace(status)
	m.orders[id] = o
	return o, nil
}

func (m *memOrders) status(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

type env struct {
	srv    *httptest.Server
	orders *memOrders
	auth   *fakeAuth
	group  *hub.Group
	ws     *WSHandler
}

func newEnv(t *testing.T, secret string, tweak ...func(*WSOptions)) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		orders: &memOrders{orders: map[int64]domain.Order{
			7:  {ID: 7, CustomerName: "Ana", CustomerPhone: "555", TotalAmount: decimal.NewFromInt(20), Status: "pending", OrderDate: time.Now()},
			42: {ID: 42, CustomerName: "Bea", CustomerPhone: "556", TotalAmount: decimal.RequireFromString("25.50"), Status: "pending", OrderDate: time.Now()},
		}},
		auth: &fakeAuth{revoked: map[string]bool{}},
	}
	lg := logger.Nop()
	m := metrics.New()
	e.group = hub.NewGroup(domain.DashboardRoom, m, lg)

	svc := service.NewNotificatorService(service.Deps{
		Orders:    e.orders,
		Auth:      e.auth,
		Publisher: broker.NewLocal(e.group),
		Metrics:   m,
		Log:       lg,
	})
	opts := WSOptions{SendBuffer: 8, PingInterval: 10 * time.Second}
	for _, fn := range tweak {
		fn(&opts)
	}
	e.ws = NewWSHandler(svc, e.group, opts, lg)

	r := gin.New()
	authH := authhandlers.NewAuthHandler(e.auth, authhandlers.CookieOptions{Name: cookieName}, lg)
	Router(r, r.Group("/admin", authH.RequireSessionStrict()), New(e.ws, NewNotificationHandler(svc, secret, lg)))

	e.srv = httptest.NewServer(r)
	t.Cleanup(func() {
		e.ws.Close()
		e.srv.Close()
	})
	return e
}

func (e *env) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/admin/ws"
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", cookieName+"="+token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

// join dials and consumes the greeting, then waits until the member is
// registered so later broadcasts reach it.
func (e *env) join(t *testing.T, token string, members int) *websocket.Conn {
	t.Helper()
	conn, _, err := e.dial(t, token)
	require.NoError(t, err)

	ev := readEvent(t, conn)
	require.Equal(t, domain.EventMyResponse, ev.Name)
	require.Eventually(t, func() bool { return e.group.Len() == members }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var ev domain.Event
	err := conn.ReadJSON(&ev)
	require.Error(t, err, "unexpected event %s", ev.Name)
}

func sendStatusUpdate(t *testing.T, conn *websocket.Conn, orderID int64, status string) {
	t.Helper()
	ev, err := domain.NewEvent(domain.EventStatusUpdateRequest, domain.StatusUpdateRequest{OrderID: orderID, NewStatus: status})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ev))
}

func TestWS_RejectsUnauthenticatedHandshake(t *testing.T) {
	e := newEnv(t, "")

	_, resp, err := e.dial(t, "")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = e.dial(t, "garbage")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, e.group.Len())
}

func TestWS_GreetingNamesTheConnection(t *testing.T) {
	e := newEnv(t, "")
	conn, _, err := e.dial(t, "tok-admin")
	require.NoError(t, err)

	ev := readEvent(t, conn)
	var payload domain.MyResponse
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.True(t, strings.HasPrefix(payload.Data, "Conectado al dashboard admin. Sesión: "))
}

func TestWS_StatusUpdateReachesEveryDashboard(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)
	b := e.join(t, "tok-bob", 2)

	sendStatusUpdate(t, a, 7, "delivered")

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		require.Equal(t, domain.EventOrderStatusUpdated, ev.Name)
		assert.JSONEq(t, `{"order_id":7,"new_status":"delivered","updated_by":"ana"}`, string(ev.Data))
	}
	assert.Equal(t, "delivered", e.orders.status(7))
}

func TestWS_InvalidCommandsAreDropped(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)

	sendStatusUpdate(t, a, 999, "delivered")
	sendStatusUpdate(t, a, 7, "")
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, a.WriteJSON(map[string]any{"event": "status_update_request", "data": map[string]any{"order_id": "7"}}))

	expectSilence(t, a)
	assert.Equal(t, "pending", e.orders.status(7))
	assert.Equal(t, 1, e.group.Len(), "connection stays open")
}

func TestWS_RevokedSessionLosesAuthority(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)
	b := e.join(t, "tok-bob", 2)

	require.NoError(t, e.auth.Logout(context.Background(), "tok-ana"))
	sendStatusUpdate(t, a, 7, "cancelled")

	expectSilence(t, b)
	assert.Equal(t, "pending", e.orders.status(7))
}

func TestWS_RevokedSessionLeavesTheGroup(t *testing.T) {
	e := newEnv(t, "", func(o *WSOptions) { o.SessionCheck = 20 * time.Millisecond })
	a := e.join(t, "tok-ana", 1)
	b := e.join(t, "tok-bob", 2)

	require.NoError(t, e.auth.Logout(context.Background(), "tok-ana"))
	require.Eventually(t, func() bool { return e.group.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := a.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)

	// bob keeps receiving broadcasts
	sendStatusUpdate(t, b, 7, "delivered")
	ev := readEvent(t, b)
	assert.Equal(t, domain.EventOrderStatusUpdated, ev.Name)
}

func TestWS_LeaveOnDisconnect(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)
	e.join(t, "tok-bob", 2)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return e.group.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWS_CloseDisconnectsMembers(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)

	e.ws.Close()

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
	require.Eventually(t, func() bool { return e.group.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func postNotification(t *testing.T, e *env, body string, header http.Header) (*http.Response, domain.MessageResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+NewOrderNotificationPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var msg domain.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	return resp, msg
}

func TestNotification_NewOrderReachesAllDashboards(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)
	b := e.join(t, "tok-bob", 2)

	resp, msg := postNotification(t, e, `{"order_id":42}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Notificación procesada", msg.Message)

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		require.Equal(t, domain.EventNewOrderAlert, ev.Name)
		var alert domain.NewOrderAlert
		require.NoError(t, json.Unmarshal(ev.Data, &alert))
		assert.Equal(t, int64(42), alert.OrderID)
		assert.Equal(t, "Bea", alert.CustomerName)
		assert.Equal(t, 25.5, alert.TotalAmount)
	}
}

func TestNotification_Errors(t *testing.T) {
	e := newEnv(t, "")
	a := e.join(t, "tok-ana", 1)

	for _, body := range []string{`{}`, `{"order_id":null}`, `{"order_id":"x"}`, `{"order_id":0}`, `nope`} {
		resp, msg := postNotification(t, e, body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "ID de pedido no proporcionado", msg.Message, body)
	}

	resp, _ := postNotification(t, e, `{"order_id":999}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	expectSilence(t, a)
}

func TestNotification_SharedSecret(t *testing.T) {
	e := newEnv(t, "s3cret")

	resp, _ := postNotification(t, e, `{"order_id":42}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postNotification(t, e, `{"order_id":42}`, http.Header{NotifyTokenHeader: {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postNotification(t, e, `{"order_id":42}`, http.Header{NotifyTokenHeader: {"s3cret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://admin.example.com"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://localhost:5001/admin/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, check(req("")))
	assert.True(t, check(req("http://localhost:5001")))
	assert.True(t, check(req("https://admin.example.com")))
	assert.False(t, check(req("https://evil.example.com")))
	assert.True(t, checkOrigin([]string{"*"})(req("https://anything.example")))
}
