package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/model"
	"github.com/inovix/booking-api/internal/queue"
	"github.com/inovix/booking-api/internal/repository"
	queuepub "github.com/inovix/booking-api/internal/service"
)

// OrderHandler owns the reservation workflow plus the order listing
// endpoints for clients and admins.  Creating an order consumes one
// unit of slot capacity inside a single transaction; any failure after
// the decrement rolls the whole thing back, so capacity is never lost
// to a half-created order.
type OrderHandler struct {
	Users    *repository.UserRepo
	Services *repository.ServiceRepo
	Slots    *repository.SlotRepo
	Orders   *repository.OrderRepo

	// PublishEvent is called after a successful reservation.  Failures
	// are logged, never surfaced to the client.  Nil disables publishing.
	PublishEvent func(ctx context.Context, event any) error
}

func NewOrderHandler(u *repository.UserRepo, s *repository.ServiceRepo, sl *repository.SlotRepo, o *repository.OrderRepo) *OrderHandler {
	if u == nil || s == nil || sl == nil || o == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Users: u, Services: s, Slots: sl, Orders: o, PublishEvent: queuepub.Publish}
}

// orderPart is the JSON shape of an order in responses.
type orderPart struct {
	ID              uint64    `json:"id"`
	OrderRef        string    `json:"order_ref"`
	UserID          uint64    `json:"user_id"`
	ServiceID       uint64    `json:"service_id"`
	SlotID          uint64    `json:"slot_id"`
	TotalPriceCents int64     `json:"total_price_cents"`
	PaymentStatus   string    `json:"payment_status"`
	OrderStatus     string    `json:"order_status"`
	GatewayTxnID    *string   `json:"gateway_txn_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toOrderPart(o model.Order) orderPart {
	return orderPart{
		ID:              o.ID,
		OrderRef:        o.OrderRef,
		UserID:          o.UserID,
		ServiceID:       o.ServiceID,
		SlotID:          o.SlotID,
		TotalPriceCents: o.TotalPriceCents,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		GatewayTxnID:    o.GatewayTxnID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type createOrderReq struct {
	ServiceID       uint64 `json:"service_id"`
	SlotID          uint64 `json:"slot_id"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

// Create handles POST /api/v1/orders (client).  The slot's capacity
// decrement and the order insert happen in one transaction; the
// decrement is conditional on remaining capacity, so two concurrent
// requests for the last unit cannot both succeed.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id and slot_id are required"})
	}
	if req.TotalPriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_price_cents must be non-negative"})
	}

	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if ok, err := h.Users.ExistsTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	} else if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	slot, err := h.Slots.GetByIDTx(ctx, tx, req.SlotID)
	if err != nil {
		if err == repository.ErrSlotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if slot.ServiceID != req.ServiceID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot does not belong to service"})
	}
	if !slot.IsAvailable || slot.IsSoldOut {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is not available"})
	}
	if slot.RemainingCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is sold out"})
	}

	// The conditional decrement is the real gate: the reads above are
	// advisory, a concurrent order between read and update lands here
	// as zero affected rows.
	if err := h.Slots.ReserveTx(ctx, tx, slot.ID); err != nil {
		if errors.Is(err, repository.ErrSlotSoldOut) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is sold out"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve slot"})
	}

	order := model.Order{
		OrderRef:        uuid.NewString(),
		UserID:          userID,
		ServiceID:       req.ServiceID,
		SlotID:          req.SlotID,
		TotalPriceCents: req.TotalPriceCents,
		PaymentStatus:   model.PaymentPending,
		OrderStatus:     model.OrderPending,
	}
	if err := h.Orders.CreateTx(ctx, tx, &order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Re-read for DB-assigned timestamps; fall back to the in-memory
	// record if the read fails.
	if stored, err := h.Orders.GetByID(ctx, order.ID); err == nil {
		order = stored
	}

	if h.PublishEvent != nil {
		ev := queue.OrderCreatedEvent{
			OrderID:         order.ID,
			OrderRef:        order.OrderRef,
			UserID:          userID,
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			SlotID:          slot.ID,
			SlotDate:        slot.SlotDate.UTC().Format("2006-01-02"),
			SlotTime:        slot.TimeLabel,
			TotalPriceCents: order.TotalPriceCents,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.PublishEvent(pubCtx, ev); err != nil {
				log.Printf("order %d: publish created event failed: %v", order.ID, err)
			}
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"item": toOrderPart(order)})
}

// MyOrders handles GET /api/v1/my-orders (client).
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.List(c.Request().Context(), repository.OrderFilter{UserID: userID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	items := make([]orderPart, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderPart(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AdminList handles GET /api/v1/orders (admin) with user_id,
// service_id, payment_status and order_status filters.
func (h *OrderHandler) AdminList(c echo.Context) error {
	var f repository.OrderFilter
	if uid := c.QueryParam("user_id"); uid != "" {
		id, err := strconv.ParseUint(uid, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		f.UserID = id
	}
	if sid := c.QueryParam("service_id"); sid != "" {
		id, err := strconv.ParseUint(sid, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service_id"})
		}
		f.ServiceID = id
	}
	if ps := c.QueryParam("payment_status"); ps != "" {
		if !model.ValidPaymentStatus(ps) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment_status"})
		}
		f.PaymentStatus = ps
	}
	if os := c.QueryParam("order_status"); os != "" {
		if !model.ValidOrderStatus(os) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order_status"})
		}
		f.OrderStatus = os
	}

	orders, err := h.Orders.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	items := make([]orderPart, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderPart(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AdminGet handles GET /api/v1/orders/:id (admin).
func (h *OrderHandler) AdminGet(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	o, err := h.Orders.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toOrderPart(o)})
}

type adminOrderUpdateReq struct {
	PaymentStatus *string `json:"payment_status"`
	OrderStatus   *string `json:"order_status"`
	GatewayTxnID  *string `json:"gateway_txn_id"`
}

// AdminUpdate handles PUT /api/v1/orders/:id (admin).  Only the two
// status fields and the gateway transaction id are assignable; this
// path bypasses reconciliation and does not touch slot capacity.
func (h *OrderHandler) AdminUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req adminOrderUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PaymentStatus == nil && req.OrderStatus == nil && req.GatewayTxnID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.PaymentStatus != nil && !model.ValidPaymentStatus(*req.PaymentStatus) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment_status"})
	}
	if req.OrderStatus != nil && !model.ValidOrderStatus(*req.OrderStatus) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order_status"})
	}

	ctx := c.Request().Context()
	if _, err := h.Orders.GetByID(ctx, id); err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	if err := h.Orders.AdminUpdate(ctx, id, req.PaymentStatus, req.OrderStatus, req.GatewayTxnID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toOrderPart(o)})
}
