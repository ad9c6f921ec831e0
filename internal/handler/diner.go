package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// DinerHandler serves /diners.
type DinerHandler struct {
	Diners DinerManager
	Paging Paging
}

// List handles GET /diners.
func (h *DinerHandler) List(c echo.Context) error {
	page, err := h.Diners.List(c.Request().Context(), listQuery(c, h.Paging))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// Create handles POST /diners.
func (h *DinerHandler) Create(c echo.Context) error {
	var in service.DinerInput
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	d, err := h.Diners.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusCreated, d)
}

// Show handles GET /diners/:id.
func (h *DinerHandler) Show(c echo.Context) error {
	id, err := pathID(c, "Diner not found")
	if err != nil {
		return respondError(c, err)
	}
	d, err := h.Diners.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, d)
}

// Update handles PUT /diners/:id.  Only supplied fields change.
func (h *DinerHandler) Update(c echo.Context) error {
	id, err := pathID(c, "Diner not found")
	if err != nil {
		return respondError(c, err)
	}
	var p service.DinerPatch
	if err := bindBody(c, &p); err != nil {
		return respondError(c, err)
	}
	d, err := h.Diners.Update(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, d)
}

// Delete handles DELETE /diners/:id.
func (h *DinerHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "Diner not found")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Diners.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Diner deleted successfully"})
}
