package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// @Summary      List poll events
// @Description  Filter by time (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD', all UTC) and type. A date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range, inclusive"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(START,STOP,FETCH_OK,FETCH_ERROR,INJECT_ERROR,SPOOF_DISABLED)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	filter, err := logFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", filter.From, "to", filter.To, "type", filter.Type)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// logFilterFromQuery reads from/to/type. Errors are safe to show to clients.
func logFilterFromQuery(c *gin.Context) (service.LogFilter, error) {
	var f service.LogFilter

	if qs := strings.TrimSpace(c.Query("from")); qs != "" {
		t, _, err := parseQueryTime(qs)
		if err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
		f.From = t
	}
	if qs := strings.TrimSpace(c.Query("to")); qs != "" {
		t, dateOnly, err := parseQueryTime(qs)
		if err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if typ := strings.ToUpper(strings.TrimSpace(c.Query("type"))); typ != "" {
		if !models.IsEventType(typ) {
			return f, fmt.Errorf("unknown event type %q", typ)
		}
		f.Type = typ
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errors.New("'from' must be <= 'to'")
	}
	return f, nil
}

// parseQueryTime accepts any of queryTimeLayouts and returns the time in UTC
// plus whether only a date was given.
func parseQueryTime(s string) (time.Time, bool, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), layout == layoutDate, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%q is not RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
