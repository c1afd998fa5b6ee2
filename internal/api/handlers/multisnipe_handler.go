package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/services"
	"auction-sniper/pkg/color"
	"auction-sniper/pkg/currency"
	"auction-sniper/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type MultiSnipeHandler struct {
	groups *services.GroupManager
	log    logger.Logger
}

type CreateMultiSnipeRequest struct {
	Color            string `json:"color"`
	DefaultBid       string `json:"default_bid"`
	SubtractShipping bool   `json:"subtract_shipping"`
}

// UpdateMultiSnipeRequest changes only the fields that are present.
type UpdateMultiSnipeRequest struct {
	Color            *string `json:"color"`
	DefaultBid       *string `json:"default_bid"`
	SubtractShipping *bool   `json:"subtract_shipping"`
}

type AddEntryRequest struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	EndTime  time.Time `json:"end_time"`
	LeadTime string    `json:"lead_time"`
	Shipping string    `json:"shipping,omitempty"`
}

type EntryResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	EndTime    time.Time `json:"end_time"`
	LeadTime   string    `json:"lead_time"`
	SnipeValue string    `json:"snipe_value"`
}

type MultiSnipeResponse struct {
	ID               int64           `json:"id"`
	Identifier       int64           `json:"identifier"`
	Color            string          `json:"color"`
	DefaultBid       string          `json:"default_bid"`
	SubtractShipping bool            `json:"subtract_shipping"`
	Members          []EntryResponse `json:"members"`
}

func NewMultiSnipeHandler(groups *services.GroupManager, log logger.Logger) *MultiSnipeHandler {
	return &MultiSnipeHandler{
		groups: groups,
		log:    log,
	}
}

func (h *MultiSnipeHandler) CreateMultiSnipe(c echo.Context) error {
	var req CreateMultiSnipeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	rgb, err := color.Decode(req.Color)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	bid, err := parseDefaultBid(req.DefaultBid)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	group, err := h.groups.CreateGroup(c.Request().Context(), rgb, bid, req.SubtractShipping)
	if err != nil {
		h.log.Error("Failed to create multisnipe", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create multisnipe"})
	}

	return c.JSON(http.StatusCreated, toResponse(group))
}

func (h *MultiSnipeHandler) UpdateMultiSnipe(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	var req UpdateMultiSnipeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	upd := services.GroupUpdate{SubtractShipping: req.SubtractShipping}
	if req.Color != nil {
		rgb, err := color.Decode(*req.Color)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		upd.Color = &rgb
	}
	if req.DefaultBid != nil {
		bid, err := parseDefaultBid(*req.DefaultBid)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		upd.DefaultBid = &bid
	}

	group, err := h.groups.UpdateGroup(c.Request().Context(), identifier, upd)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(group))
}

func (h *MultiSnipeHandler) ListMultiSnipes(c echo.Context) error {
	groups := h.groups.Groups()
	out := make([]MultiSnipeResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toResponse(g))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MultiSnipeHandler) GetMultiSnipe(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	group, err := h.groups.Group(c.Request().Context(), identifier)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(group))
}

// Lookup finds a stored record by any persisted field, or by row id.
func (h *MultiSnipeHandler) Lookup(c echo.Context) error {
	key, value := c.QueryParam("key"), c.QueryParam("value")
	if key == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "key is required"})
	}

	var (
		rec *domain.Record
		err error
	)
	if key == "id" {
		id, perr := strconv.ParseInt(value, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "id must be an integer"})
		}
		rec, err = h.groups.FindByRowID(c.Request().Context(), id)
	} else {
		rec, err = h.groups.FindByField(c.Request().Context(), key, value)
	}
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *MultiSnipeHandler) AddEntry(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	var req AddEntryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_time is required"})
	}

	lead, err := time.ParseDuration(req.LeadTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lead_time must be a duration such as \"8s\""})
	}

	var shipping currency.Amount
	if req.Shipping != "" {
		if shipping, err = currency.Parse(req.Shipping); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	entry := domain.NewSnipeEntry(req.ID, req.Title, req.EndTime, lead, shipping)
	if err := h.groups.Join(c.Request().Context(), identifier, entry); err != nil {
		return h.errorResponse(c, err)
	}

	group, err := h.groups.Group(c.Request().Context(), identifier)
	if err != nil {
		return h.errorResponse(c, err)
	}
	member, err := h.groups.Member(c.Request().Context(), identifier, entry.Identifier())
	if err != nil {
		return h.errorResponse(c, err)
	}

	// A repeated id leaves the stored member untouched.
	status := http.StatusCreated
	if member != domain.AuctionEntry(entry) {
		status = http.StatusOK
	}
	return c.JSON(status, toEntryResponse(group, member))
}

func (h *MultiSnipeHandler) RemoveEntry(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	if err := h.groups.Leave(c.Request().Context(), identifier, c.Param("entryID")); err != nil {
		return h.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MultiSnipeHandler) MarkWon(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	cancelled, err := h.groups.MarkWon(c.Request().Context(), identifier)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"cancelled": cancelled})
}

func (h *MultiSnipeHandler) DeleteMultiSnipe(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	if err := h.groups.DeleteGroup(c.Request().Context(), identifier); err != nil {
		return h.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MultiSnipeHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnsafeSnipe),
		errors.Is(err, domain.ErrEntryInGroup):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnknownField):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	h.log.Error("Request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func parseDefaultBid(s string) (currency.Amount, error) {
	bid, err := currency.Parse(s)
	if err != nil || bid.IsNull() {
		return currency.Amount{}, errors.New("default_bid must look like \"USD 10.00\"")
	}
	if bid.Value.IsNegative() {
		return currency.Amount{}, errors.New("default_bid must not be negative")
	}
	return bid, nil
}

func parseIdentifier(c echo.Context) (int64, error) {
	identifier, err := strconv.ParseInt(c.Param("identifier"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "identifier must be an integer")
	}
	return identifier, nil
}

func toResponse(g *domain.MultiSnipe) MultiSnipeResponse {
	members := g.Members()
	resp := MultiSnipeResponse{
		ID:               g.ID(),
		Identifier:       g.Identifier(),
		Color:            g.ColorString(),
		DefaultBid:       g.DefaultBid().String(),
		SubtractShipping: g.SubtractShipping(),
		Members:          make([]EntryResponse, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, toEntryResponse(g, m))
	}
	return resp
}

func toEntryResponse(g *domain.MultiSnipe, e domain.AuctionEntry) EntryResponse {
	return EntryResponse{
		ID:         e.Identifier(),
		Title:      e.Title(),
		EndTime:    e.EndTime(),
		LeadTime:   e.SnipeLeadTime().String(),
		SnipeValue: g.SnipeValue(e).String(),
	}
}
