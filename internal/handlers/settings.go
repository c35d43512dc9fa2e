package handlers

import (
	"errors"
	"net/http"

	"ha_location_proxy/internal/models"
	"ha_location_proxy/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errLoadSettings    = "failed to load settings"
	errSaveSettings    = "failed to save settings"
	errInvalidBodyPref = "invalid body: "
)

// SettingsResponse is the settings view returned to API clients. The token
// itself is never echoed back.
type SettingsResponse struct {
	models.Settings
	HasToken bool `json:"has_token" example:"true"`
}

// ToggleRequest switches a single flag.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

func (h *Handler) respondWithSettings(c *gin.Context) {
	st, err := h.services.Settings.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSettings, "settings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{Settings: st, HasToken: st.HasToken()})
}

// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  SettingsResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	h.respondWithSettings(c)
}

// @Summary      Update settings
// @Description  Applies every field present in the body. Blank strings clear a value.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.SettingsPatch  true  "Fields to change"
// @Success      200   {object}  SettingsResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [put]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Settings.Update(c.Request.Context(), patch); err != nil {
		h.writeSettingsError(c, err)
		return
	}
	h.respondWithSettings(c)
}

// @Summary      Enable or disable polling
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      ToggleRequest  true  "Polling flag"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings/polling [post]
// @Security     BearerAuth
func (h *Handler) setPolling(c *gin.Context) {
	var req ToggleRequest
	if !h.bindToggle(c, &req) {
		return
	}
	if err := h.services.Settings.SetPollingEnabled(c.Request.Context(), *req.Enabled); err != nil {
		h.writeSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"polling_enabled": *req.Enabled})
}

// @Summary      Enable or disable location spoofing
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      ToggleRequest  true  "Spoofing flag"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings/spoofing [post]
// @Security     BearerAuth
func (h *Handler) setSpoofing(c *gin.Context) {
	var req ToggleRequest
	if !h.bindToggle(c, &req) {
		return
	}
	if err := h.services.Settings.SetSpoofingEnabled(c.Request.Context(), *req.Enabled); err != nil {
		h.writeSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spoofing_enabled": *req.Enabled})
}

func (h *Handler) bindToggle(c *gin.Context, req *ToggleRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeSettingsError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidInterval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, errSaveSettings, "settings_save_failed", err)
}
