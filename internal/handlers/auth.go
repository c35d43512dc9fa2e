package handlers

import (
	"errors"
	"net/http"

	"ha_location_proxy/internal/service"

	"github.com/gin-gonic/gin"
)

// authCredentials is the body of both sign-up and sign-in.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest binds the body into dst and writes a 400 on failure.
// It reports whether the handler should continue.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Create an API operator
// @Description  Open to anyone only with auth.allow_sign_up; otherwise only the first operator can sign up.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if !h.bindJSONOrBadRequest(c, &input) {
		return
	}

	id, err := h.services.SignUp(c.Request.Context(), input.Username, input.Password)
	switch {
	case errors.Is(err, service.ErrSignUpClosed):
		if h.log != nil {
			h.log.Warnw("auth_sign_up_refused", "username", input.Username, "remote", c.ClientIP())
		}
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrSignUpClosed.Error()})
		return
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrUsernameTaken.Error()})
		return
	case errors.Is(err, service.ErrEmptyCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to create user", "auth_sign_up_failed", err,
			"username", input.Username)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_user_created", "username", input.Username, "id", id)
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Exchange credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Credentials"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if !h.bindJSONOrBadRequest(c, &input) {
		return
	}

	token, err := h.services.GenerateToken(c.Request.Context(), input.Username, input.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidPassword):
		if h.log != nil {
			h.log.Infow("auth_sign_in_rejected", "username", input.Username)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to sign in", "auth_sign_in_failed", err,
			"username", input.Username)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
