package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/model"
	"github.com/inovix/booking-api/internal/repository"
)

// SlotHandler serves schedule slot reads for everyone and slot CRUD
// for admins.
type SlotHandler struct {
	Slots    *repository.SlotRepo
	Services *repository.ServiceRepo
}

func NewSlotHandler(slots *repository.SlotRepo, services *repository.ServiceRepo) *SlotHandler {
	return &SlotHandler{Slots: slots, Services: services}
}

// slotPart is the JSON shape of a schedule slot in responses.  The
// date is rendered as YYYY-MM-DD; the availability flags are always
// the stored derived values.
type slotPart struct {
	ID                uint64 `json:"id"`
	ServiceID         uint64 `json:"service_id"`
	SlotDate          string `json:"slot_date"`
	TimeLabel         string `json:"time_label"`
	Capacity          int64  `json:"capacity"`
	RemainingCapacity int64  `json:"remaining_capacity"`
	IsAvailable       bool   `json:"is_available"`
	IsSoldOut         bool   `json:"is_sold_out"`
}

func toSlotPart(s model.ScheduleSlot) slotPart {
	return slotPart{
		ID:                s.ID,
		ServiceID:         s.ServiceID,
		SlotDate:          s.SlotDate.UTC().Format("2006-01-02"),
		TimeLabel:         s.TimeLabel,
		Capacity:          s.Capacity,
		RemainingCapacity: s.RemainingCapacity,
		IsAvailable:       s.IsAvailable,
		IsSoldOut:         s.IsSoldOut,
	}
}

func bindSlotFilter(c echo.Context) (repository.SlotFilter, string) {
	var f repository.SlotFilter
	if sid := c.QueryParam("service_id"); sid != "" {
		id, err := strconv.ParseUint(sid, 10, 64)
		if err != nil || id == 0 {
			return f, "invalid service_id"
		}
		f.ServiceID = id
	}
	if d := c.QueryParam("slot_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return f, "slot_date must be YYYY-MM-DD"
		}
		f.Date = &t
	}
	if av := c.QueryParam("is_available"); av != "" {
		b, err := strconv.ParseBool(av)
		if err != nil {
			return f, "is_available must be a boolean"
		}
		f.IsAvailable = &b
	}
	if so := c.QueryParam("is_sold_out"); so != "" {
		b, err := strconv.ParseBool(so)
		if err != nil {
			return f, "is_sold_out must be a boolean"
		}
		f.IsSoldOut = &b
	}
	return f, ""
}

// List handles GET /api/v1/slots with optional service_id, slot_date
// and availability filters.
func (h *SlotHandler) List(c echo.Context) error {
	f, msg := bindSlotFilter(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	slots, err := h.Slots.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
	}
	items := make([]slotPart, 0, len(slots))
	for _, s := range slots {
		items = append(items, toSlotPart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListAvailable handles GET /api/v1/slots/available: same filters as
// List but pinned to slots that still have sellable capacity.
func (h *SlotHandler) ListAvailable(c echo.Context) error {
	f, msg := bindSlotFilter(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	avail := true
	f.IsAvailable = &avail
	f.IsSoldOut = nil

	slots, err := h.Slots.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
	}
	items := make([]slotPart, 0, len(slots))
	for _, s := range slots {
		items = append(items, toSlotPart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/v1/slots/:id.
func (h *SlotHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	s, err := h.Slots.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrSlotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slot"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toSlotPart(s)})
}

type slotCreateReq struct {
	ServiceID uint64 `json:"service_id"`
	SlotDate  string `json:"slot_date"`
	TimeLabel string `json:"time_label"`
	Capacity  int64  `json:"capacity"`
}

// Create handles POST /api/v1/slots (admin).  remaining_capacity
// starts at capacity and the availability flags are derived, never
// taken from the request.
func (h *SlotHandler) Create(c echo.Context) error {
	var req slotCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id is required"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}
	req.TimeLabel = strings.TrimSpace(req.TimeLabel)
	if req.TimeLabel == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_label is required"})
	}
	date, err := time.Parse("2006-01-02", req.SlotDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_date must be YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	if _, err := h.Services.GetByID(ctx, req.ServiceID); err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}

	slot := model.ScheduleSlot{
		ServiceID: req.ServiceID,
		SlotDate:  date,
		TimeLabel: req.TimeLabel,
		Capacity:  req.Capacity,
	}
	if err := h.Slots.Create(ctx, &slot); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create slot"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toSlotPart(slot)})
}

type slotUpdateReq struct {
	SlotDate          string `json:"slot_date"`
	TimeLabel         string `json:"time_label"`
	RemainingCapacity *int64 `json:"remaining_capacity"`
}

// Update handles PUT /api/v1/slots/:id (admin).  Capacity is fixed at
// creation; remaining_capacity may be corrected within [0, capacity]
// and the flags are rederived from whatever value ends up stored.
func (h *SlotHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var req slotUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	slot, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrSlotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slot"})
	}

	if req.SlotDate != "" {
		date, err := time.Parse("2006-01-02", req.SlotDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_date must be YYYY-MM-DD"})
		}
		slot.SlotDate = date
	}
	if l := strings.TrimSpace(req.TimeLabel); l != "" {
		slot.TimeLabel = l
	}
	if req.RemainingCapacity != nil {
		rc := *req.RemainingCapacity
		if rc < 0 || rc > slot.Capacity {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "remaining_capacity out of range"})
		}
		slot.RemainingCapacity = rc
	}

	if err := h.Slots.Update(ctx, &slot); err != nil {
		if err == repository.ErrSlotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update slot"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toSlotPart(slot)})
}

// Delete handles DELETE /api/v1/slots/:id (admin).  Existing orders
// referencing the slot remain untouched.
func (h *SlotHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	if err := h.Slots.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrSlotNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete slot"})
	}
	return c.NoContent(http.StatusNoContent)
}
