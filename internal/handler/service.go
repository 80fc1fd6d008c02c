package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/model"
	"github.com/inovix/booking-api/internal/repository"
	"github.com/inovix/booking-api/internal/utils"
)

// ServiceHandler serves the public catalog reads and the admin CRUD
// for marketplace services.
type ServiceHandler struct {
	Services  *repository.ServiceRepo
	UploadDir string
}

func NewServiceHandler(s *repository.ServiceRepo, uploadDir string) *ServiceHandler {
	return &ServiceHandler{Services: s, UploadDir: uploadDir}
}

// servicePart is the JSON shape of a service in responses.
type servicePart struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"is_active"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toServicePart(s model.Service) servicePart {
	return servicePart{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		PriceCents:  s.PriceCents,
		Category:    s.Category,
		IsActive:    s.IsActive,
		Image:       s.Image,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// List handles GET /api/v1/services with optional category and
// is_active query filters.
func (h *ServiceHandler) List(c echo.Context) error {
	var f repository.ServiceFilter
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		if !model.ValidCategory(cat) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		f.Category = cat
	}
	if act := c.QueryParam("is_active"); act != "" {
		b, err := strconv.ParseBool(act)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active must be a boolean"})
		}
		f.IsActive = &b
	}

	services, err := h.Services.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load services"})
	}
	items := make([]servicePart, 0, len(services))
	for _, s := range services {
		items = append(items, toServicePart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/v1/services/:id.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	s, err := h.Services.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toServicePart(s)})
}

// bindServiceForm reads the multipart/form fields shared by Create and
// Update.  The image file is optional; when present it is saved to the
// upload dir and the stored relative path is returned through s.Image.
func (h *ServiceHandler) bindServiceForm(c echo.Context, s *model.Service) (string, bool) {
	s.Name = strings.TrimSpace(c.FormValue("name"))
	s.Description = strings.TrimSpace(c.FormValue("description"))
	s.Category = strings.TrimSpace(c.FormValue("category"))
	if s.Name == "" || len(s.Name) > 100 {
		return "name is required and must be at most 100 characters", false
	}
	if !model.ValidCategory(s.Category) {
		return "unknown category", false
	}
	price, err := strconv.ParseInt(c.FormValue("price_cents"), 10, 64)
	if err != nil || price < 0 {
		return "price_cents must be a non-negative integer", false
	}
	s.PriceCents = price
	s.IsActive = true
	if act := c.FormValue("is_active"); act != "" {
		b, err := strconv.ParseBool(act)
		if err != nil {
			return "is_active must be a boolean", false
		}
		s.IsActive = b
	}
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		path, err := utils.SaveServiceImage(fh, h.UploadDir)
		if err != nil {
			return "image upload failed: " + err.Error(), false
		}
		s.Image = &path
	}
	return "", true
}

// Create handles POST /api/v1/services (admin).  Accepts multipart
// form data so an image can be uploaded in the same request.
func (h *ServiceHandler) Create(c echo.Context) error {
	var s model.Service
	if msg, ok := h.bindServiceForm(c, &s); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Services.Create(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toServicePart(s)})
}

// Update handles PUT /api/v1/services/:id (admin).  Omitting the image
// file keeps the existing one.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var s model.Service
	s.ID = id
	if msg, ok := h.bindServiceForm(c, &s); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Services.Update(c.Request().Context(), &s); err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}
	updated, err := h.Services.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toServicePart(updated)})
}

// Delete handles DELETE /api/v1/services/:id (admin).
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	if err := h.Services.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service"})
	}
	return c.NoContent(http.StatusNoContent)
}
