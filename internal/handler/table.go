package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// TableHandler serves /tables.  Reservations is used by the
// availability endpoint only.
type TableHandler struct {
	Tables       TableManager
	Reservations ReservationManager
	Paging       Paging
}

// List handles GET /tables.
func (h *TableHandler) List(c echo.Context) error {
	page, err := h.Tables.List(c.Request().Context(), listQuery(c, h.Paging))
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page)
}

// Create handles POST /tables.
func (h *TableHandler) Create(c echo.Context) error {
	var in service.TableInput
	if err := bindBody(c, &in); err != nil {
		return respondError(c, err)
	}
	t, err := h.Tables.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusCreated, t)
}

// Show handles GET /tables/:id.
func (h *TableHandler) Show(c echo.Context) error {
	id, err := pathID(c, "Table not found")
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.Tables.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, t)
}

// Update handles PUT /tables/:id.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := pathID(c, "Table not found")
	if err != nil {
		return respondError(c, err)
	}
	var p service.TablePatch
	if err := bindBody(c, &p); err != nil {
		return respondError(c, err)
	}
	t, err := h.Tables.Update(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, t)
}

// Delete handles DELETE /tables/:id.
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "Table not found")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Table deleted successfully"})
}

// Availability handles GET /tables/:id/availability?date=&time=&party_size=.
func (h *TableHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "Table not found")
	if err != nil {
		return respondError(c, err)
	}
	q := service.AvailabilityQuery{
		TableID: id,
		Date:    c.QueryParam("date"),
		Time:    c.QueryParam("time"),
	}
	if ps := c.QueryParam("party_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			return respondError(c, &service.Error{
				Kind:    service.KindValidation,
				Message: "The given data was invalid.",
				Fields:  map[string][]string{"party_size": {"Value must be an integer"}},
				Err:     err,
			})
		}
		q.PartySize = n
	}
	out, err := h.Reservations.Availability(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, http.StatusOK, echo.Map{
		"table_id":   id,
		"date":       q.Date,
		"time":       q.Time,
		"party_size": q.PartySize,
		"available":  out == service.Available,
		"outcome":    out.String(),
	})
}
