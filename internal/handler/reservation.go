package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// ReservationHandler serves /reservations.
type ReservationHandler struct {
	Reservations ReservationManager
	Paging       Paging
}

// List handles GET /reservations.  Besides the common list parameters
// it accepts date, diner_id, table_id and party_size filters; values
// that do not parse are ignored.
func (h *ReservationHandler) List(c echo.Context) error {
	q := repository.ReservationListQuery{
		ListQuery: listQuery(c, h.Paging),
		Date:      strings.TrimSpace(c.QueryParam("date")),
	}
	q.DinerID, _ = strconv.ParseUint(c.QueryParam("diner_id"), 10, 64)
	q.TableID, _ = strconv.ParseUint(c.QueryParam("table_id"), 10, 64)
	q.PartySize, _ = strconv.Atoi(c.QueryParam("party_size"))

	page, err := h.Reservations.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.ReservationInput
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	r, err := h.Reservations.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusCreated, r)
}

// Show handles GET /reservations/:id.
func (h *ReservationHandler) Show(c echo.Context) error {
	id, err := pathID(c, "Reservation not found")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.Reservations.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, r)
}

// Update handles PUT /reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "Reservation not found")
	if err != nil {
		return respondError(c, err)
	}
	var p service.ReservationPatch
	if err := bindBody(c, &p); err != nil {
		return respondError(c, err)
	}
	r, err := h.Reservations.Update(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, r)
}

// Delete handles DELETE /reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "Reservation not found")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Reservation deleted successfully"})
}
