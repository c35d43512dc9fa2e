package handlers

import (
	"net/http"

	"ha_location_proxy/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errLoadLocation  = "failed to load location"
	errRefreshEntity = "failed to refresh entity"
	errNoLocation    = "no location is being reported"
)

// StatusResponse is the engine state shown to operators.
type StatusResponse struct {
	Status  models.Status `json:"status"`
	Running bool          `json:"running" example:"true"`
}

func (h *Handler) currentStatus() StatusResponse {
	return StatusResponse{Status: h.services.Spoofer.Status(), Running: h.services.Spoofer.Running()}
}

// @Summary      Engine status
// @Tags         engine
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.currentStatus())
}

// @Summary      Currently reported location
// @Tags         engine
// @Produce      json
// @Success      200  {object}  models.MockLocation
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/location [get]
// @Security     BearerAuth
func (h *Handler) getLocation(c *gin.Context) {
	loc, err := h.services.Location.Current(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadLocation, "location_load_failed", err)
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoLocation})
		return
	}
	c.JSON(http.StatusOK, loc)
}

// @Summary      Fetch the entity once
// @Description  Uses the stored settings; does not affect the poll loop.
// @Tags         engine
// @Produce      json
// @Success      200  {object}  models.RefreshResult
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/entity/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshEntity(c *gin.Context) {
	res, err := h.services.Entity.Refresh(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errRefreshEntity, "entity_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
