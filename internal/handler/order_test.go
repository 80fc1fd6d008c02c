package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovix/booking-api/internal/model"
	"github.com/inovix/booking-api/internal/repository"
)

const (
	userExistsSQL   = `SELECT 1 FROM users WHERE id=\? LIMIT 1`
	serviceByIDSQL  = `SELECT .+ FROM services WHERE id = \?`
	slotByIDSQL     = `SELECT .+ FROM schedule_slots WHERE id = \?`
	slotReserveSQL  = `UPDATE schedule_slots SET remaining_capacity = remaining_capacity - 1, .+ WHERE id = \? AND remaining_capacity > 0`
	orderInsertSQL  = `INSERT INTO orders \(order_ref, user_id, service_id, slot_id, total_price_cents, payment_status, order_status\) VALUES \(\?,\?,\?,\?,\?,\?,\?\)`
	orderByIDSQL    = `SELECT .+ FROM orders WHERE id = \?`
	orderByRefSQL   = `SELECT .+ FROM orders WHERE order_ref = \?`
	orderMarkSQL    = `UPDATE orders SET payment_status = \?, capacity_restored = 1 WHERE id = \? AND capacity_restored = 0`
	orderPaySQL     = `UPDATE orders SET payment_status = \? WHERE id = \?`
	orderTxnSQL     = `UPDATE orders SET gateway_txn_id = \? WHERE id = \?`
	slotRestoreSQL  = `UPDATE schedule_slots SET remaining_capacity = LEAST\(capacity, remaining_capacity \+ 1\), .+ WHERE id = \?`
	orderInsertExpr = "INSERT INTO orders"
)

func serviceRows(id uint64, name string, price int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "price_cents", "category", "is_active",
		"image", "created_at", "updated_at",
	}).AddRow(id, name, "desc", price, model.CategoryContentCreator, true, nil, now, now)
}

func slotRows(id, serviceID uint64, capacity, remaining int64) *sqlmock.Rows {
	now := time.Now().UTC()
	avail, sold := model.DeriveSlotFlags(remaining)
	return sqlmock.NewRows([]string{
		"id", "service_id", "slot_date", "time_label", "capacity",
		"remaining_capacity", "is_available", "is_sold_out", "created_at", "updated_at",
	}).AddRow(id, serviceID, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), "10:00 - 12:00",
		capacity, remaining, avail, sold, now, now)
}

func storedOrderRows(id uint64, ref string, userID, serviceID, slotID uint64, payStatus string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "order_ref", "user_id", "service_id", "slot_id", "total_price_cents",
		"payment_status", "order_status", "gateway_txn_id", "capacity_restored",
		"created_at", "updated_at",
	}).AddRow(id, ref, userID, serviceID, slotID, int64(150000), payStatus, model.OrderPending, nil, false, now, now)
}

func newOrderTestEnv(t *testing.T) (*OrderHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := &OrderHandler{
		Users:    repository.NewUserRepo(db),
		Services: repository.NewServiceRepo(db),
		Slots:    repository.NewSlotRepo(db),
		Orders:   repository.NewOrderRepo(db),
		// tests assert DB effects, not broker traffic
		PublishEvent: nil,
	}
	return h, mock, func() { db.Close() }
}

func createOrderCtx(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))
	c.Set("role", model.RoleClient)
	return c, rec
}

func TestCreateOrderReservesCapacity(t *testing.T) {
	h, mock, done := newOrderTestEnv(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(userExistsSQL).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(serviceByIDSQL).WithArgs(uint64(2)).
		WillReturnRows(serviceRows(2, "Content package", 150000))
	mock.ExpectQuery(slotByIDSQL).WithArgs(uint64(3)).
		WillReturnRows(slotRows(3, 2, 5, 2))
	mock.ExpectExec(slotReserveSQL).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(orderInsertSQL).
		WithArgs(sqlmock.AnyArg(), uint64(1), uint64(2), uint64(3), int64(150000),
			model.PaymentPending, model.OrderPending).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(orderByIDSQL).WithArgs(uint64(10)).
		WillReturnRows(storedOrderRows(10, "ref-10", 1, 2, 3, model.PaymentPending))

	c, rec := createOrderCtx(`{"service_id":2,"slot_id":3,"total_price_cents":150000}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_status":"pending"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderSoldOutRace(t *testing.T) {
	// The slot still read as available, but a concurrent order took the
	// last unit before the decrement ran: zero rows affected must roll
	// everything back and surface as sold out.
	h, mock, done := newOrderTestEnv(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(userExistsSQL).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(serviceByIDSQL).WithArgs(uint64(2)).
		WillReturnRows(serviceRows(2, "Content package", 150000))
	mock.ExpectQuery(slotByIDSQL).WithArgs(uint64(3)).
		WillReturnRows(slotRows(3, 2, 5, 1))
	mock.ExpectExec(slotReserveSQL).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := createOrderCtx(`{"service_id":2,"slot_id":3,"total_price_cents":150000}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sold out")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsSoldOutSlot(t *testing.T) {
	h, mock, done := newOrderTestEnv(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(userExistsSQL).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(serviceByIDSQL).WithArgs(uint64(2)).
		WillReturnRows(serviceRows(2, "Content package", 150000))
	mock.ExpectQuery(slotByIDSQL).WithArgs(uint64(3)).
		WillReturnRows(slotRows(3, 2, 5, 0))
	mock.ExpectRollback()

	c, rec := createOrderCtx(`{"service_id":2,"slot_id":3,"total_price_cents":150000}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderCompensatesOnInsertFailure(t *testing.T) {
	// The decrement succeeded but the order insert blew up: the rollback
	// must give the capacity back, leaving no half-created state.
	h, mock, done := newOrderTestEnv(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(userExistsSQL).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(serviceByIDSQL).WithArgs(uint64(2)).
		WillReturnRows(serviceRows(2, "Content package", 150000))
	mock.ExpectQuery(slotByIDSQL).WithArgs(uint64(3)).
		WillReturnRows(slotRows(3, 2, 5, 2))
	mock.ExpectExec(slotReserveSQL).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(orderInsertExpr).
		WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	c, rec := createOrderCtx(`{"service_id":2,"slot_id":3,"total_price_cents":150000}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderValidation(t *testing.T) {
	h, _, done := newOrderTestEnv(t)
	defer done()

	tests := []struct {
		name string
		body string
	}{
		{"missing service", `{"slot_id":3,"total_price_cents":100}`},
		{"missing slot", `{"service_id":2,"total_price_cents":100}`},
		{"negative price", `{"service_id":2,"slot_id":3,"total_price_cents":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := createOrderCtx(tt.body)
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateOrderSlotServiceMismatch(t *testing.T) {
	h, mock, done := newOrderTestEnv(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(userExistsSQL).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(serviceByIDSQL).WithArgs(uint64(2)).
		WillReturnRows(serviceRows(2, "Content package", 150000))
	mock.ExpectQuery(slotByIDSQL).WithArgs(uint64(3)).
		WillReturnRows(slotRows(3, 7, 5, 2)) // belongs to another service
	mock.ExpectRollback()

	c, rec := createOrderCtx(`{"service_id":2,"slot_id":3,"total_price_cents":150000}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not belong")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateValidatesStatuses(t *testing.T) {
	h, _, done := newOrderTestEnv(t)
	defer done()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders/5",
		strings.NewReader(`{"payment_status":"refunded"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.AdminUpdate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Regexp(t, regexp.MustCompile("unknown payment_status"), rec.Body.String())
}
