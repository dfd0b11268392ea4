package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/analytics"
	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/pubsub"
)

// AnalyticsHandler records and reports sponsor interactions.
type AnalyticsHandler struct {
	tracker *analytics.Tracker
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(tracker *analytics.Tracker) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker}
}

// Track handles POST /api/analytics/sponsor.
func (h *AnalyticsHandler) Track(c echo.Context) error {
	var in analytics.Interaction
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format.")
	}
	if err := c.Validate(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ev, err := h.tracker.Track(c.Request().Context(), in)
	if errors.Is(err, domain.ErrUnknownEventType) || errors.Is(err, domain.ErrUnknownSponsor) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "event": ev})
}

// Summary handles GET /api/analytics/summary.
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Summary())
}

// SponsorEvents handles GET /api/analytics/sponsors/:id/events.
func (h *AnalyticsHandler) SponsorEvents(c echo.Context) error {
	id := c.Param("id")
	return c.JSON(http.StatusOK, map[string]any{"sponsorId": id, "events": h.tracker.SponsorEvents(id)})
}

// ClearOld handles DELETE /api/analytics/events?days=N.
func (h *AnalyticsHandler) ClearOld(c echo.Context) error {
	days := 0
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = n
	}
	removed := h.tracker.ClearOld(c.Request().Context(), days)
	return c.JSON(http.StatusOK, map[string]any{"removed": removed, "remaining": len(h.tracker.Events())})
}

// Sponsors handles GET /api/sponsors.
func (h *AnalyticsHandler) Sponsors(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"sponsors": domain.Sponsors()})
}

// Topics handles GET /api/topics, listing the event bus topics.
func (h *AnalyticsHandler) Topics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"topics": pubsub.Topics()})
}
