package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/model"
	"github.com/inovix/booking-api/internal/payment"
	"github.com/inovix/booking-api/internal/queue"
	"github.com/inovix/booking-api/internal/repository"
	queuepub "github.com/inovix/booking-api/internal/service"
)

// PaymentHandler integrates the payment gateway: opening checkout
// sessions for pending orders and reconciling gateway notifications
// back onto order and slot state.
//
// Notifications are never trusted for status fields.  Only the order
// reference is read from the posted body; the status that drives the
// transition comes from a direct gateway lookup, which also makes
// forged callbacks harmless.
type PaymentHandler struct {
	Users  *repository.UserRepo
	Orders *repository.OrderRepo
	Slots  *repository.SlotRepo

	Services *repository.ServiceRepo

	Checkout payment.CheckoutCreator
	Status   payment.StatusSource

	// PublishEvent mirrors OrderHandler's hook; failures only log.
	PublishEvent func(ctx context.Context, event any) error
}

func NewPaymentHandler(u *repository.UserRepo, o *repository.OrderRepo, sl *repository.SlotRepo, sv *repository.ServiceRepo, gw *payment.Gateway) *PaymentHandler {
	return &PaymentHandler{
		Users:        u,
		Orders:       o,
		Slots:        sl,
		Services:     sv,
		Checkout:     gw,
		Status:       gw,
		PublishEvent: queuepub.Publish,
	}
}

type checkoutReq struct {
	OrderID uint64 `json:"order_id"`
}

// CreateCheckout handles POST /api/v1/payments/checkout (client).
// Only the order's owner can open a session, and only while the order
// is still pending payment.
func (h *PaymentHandler) CreateCheckout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}

	ctx := c.Request().Context()
	order, err := h.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	if order.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if order.PaymentStatus != model.PaymentPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is not pending payment"})
	}

	svc, err := h.Services.GetByID(ctx, order.ServiceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}

	session, err := h.Checkout.CreateCheckout(payment.CheckoutRequest{
		OrderRef:      order.OrderRef,
		GrossCents:    order.TotalPriceCents,
		ItemID:        "service-" + strconv.FormatUint(order.ServiceID, 10),
		ItemName:      svc.Name,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway error"})
	}

	// The snap token identifies the gateway session until the first
	// notification carries the definitive transaction id.
	if err := h.Orders.SetGatewayTxnID(ctx, order.ID, session.Token); err != nil {
		log.Printf("order %d: store snap token failed: %v", order.ID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order_ref":    order.OrderRef,
		"token":        session.Token,
		"redirect_url": session.RedirectURL,
	})
}

type notificationReq struct {
	OrderID string `json:"order_id"` // the gateway echoes our order_ref here
}

// HandleNotification handles POST /api/v1/payments/notification, the
// gateway's server-to-server callback.  Transitions:
//
//	capture + challenge  -> pending
//	capture + accept     -> paid
//	settlement           -> paid
//	cancel, expire       -> expired, slot capacity restored once
//	pending              -> pending
//	anything else        -> no-op
//
// Every handled or ignored outcome acknowledges with 200 so the
// gateway stops redelivering; only an unknown order returns 404.
// Redeliveries are safe: the expired transition is guarded by the
// order's capacity_restored marker, so the slot is incremented at most
// once per order, and the paid/pending updates are plain overwrites.
func (h *PaymentHandler) HandleNotification(c echo.Context) error {
	var req notificationReq
	if err := c.Bind(&req); err != nil || req.OrderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}

	status, err := h.Status.Status(req.OrderID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "status lookup failed"})
	}

	ctx := c.Request().Context()
	order, err := h.Orders.GetByRef(ctx, req.OrderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}

	newStatus := ""
	restore := false
	switch status.TransactionStatus {
	case payment.StatusCapture:
		switch status.FraudStatus {
		case payment.FraudChallenge:
			newStatus = model.PaymentPending
		case payment.FraudAccept:
			newStatus = model.PaymentPaid
		default:
			// Fraud-denied (or unreviewed) captures never pay an order;
			// the gateway follows up with a terminal status later.
			return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
		}
	case payment.StatusSettlement:
		newStatus = model.PaymentPaid
	case payment.StatusCancel, payment.StatusExpire:
		newStatus = model.PaymentExpired
		restore = true
	case payment.StatusPending:
		newStatus = model.PaymentPending
	default:
		// Unknown status from a newer gateway version: acknowledge and
		// leave the order untouched.
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}

	if status.TransactionID != "" {
		if err := h.Orders.SetGatewayTxnID(ctx, order.ID, status.TransactionID); err != nil {
			log.Printf("order %d: store gateway txn id failed: %v", order.ID, err)
		}
	}

	restored := false
	if restore {
		restored, err = h.expireAndRestore(ctx, order)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
		}
	} else {
		if err := h.Orders.SetPaymentStatus(ctx, order.ID, newStatus); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
		}
	}

	if h.PublishEvent != nil && newStatus != order.PaymentStatus {
		ev := queue.PaymentStatusEvent{
			OrderID:          order.ID,
			OrderRef:         order.OrderRef,
			SlotID:           order.SlotID,
			PaymentStatus:    newStatus,
			GatewayStatus:    status.TransactionStatus,
			CapacityRestored: restored,
			OccurredAt:       time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.PublishEvent(pubCtx, ev); err != nil {
				log.Printf("order %d: publish payment event failed: %v", ev.OrderID, err)
			}
		}()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":         "ok",
		"payment_status": newStatus,
	})
}

// expireAndRestore moves the order to expired and gives the consumed
// slot unit back, both in one transaction.  The order row carries a
// capacity_restored marker that is checked and set atomically, so a
// redelivered expiry can mark at most one winner; losers skip the slot
// update entirely.  Returns whether this call restored capacity.
func (h *PaymentHandler) expireAndRestore(ctx context.Context, order model.Order) (bool, error) {
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	won, err := h.Orders.MarkExpiredOnceTx(ctx, tx, order.ID)
	if err != nil {
		return false, err
	}
	if won {
		if err := h.Slots.RestoreTx(ctx, tx, order.SlotID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return won, nil
}
