package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxUserID is the gin context key holding the authenticated operator id.
const ctxUserID = "userId"

// accessTokenParam lets browser WebSocket clients, which cannot set headers,
// pass the bearer token in the query string.
const accessTokenParam = "access_token"

// requireOperator accepts "Authorization: Bearer <jwt>" (or ?access_token=<jwt>)
// and stores the operator id in the gin context.
func (h *Handler) requireOperator(c *gin.Context) {
	token, problem := bearerToken(c)
	if problem != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

// bearerToken extracts the token, or returns a client-facing problem.
func bearerToken(c *gin.Context) (token, problem string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := strings.TrimSpace(c.Query(accessTokenParam)); q != "" {
			return q, ""
		}
		return "", "missing Authorization header"
	}

	scheme, rest, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(rest) == "" {
		return "", "invalid Authorization header format"
	}
	return strings.TrimSpace(rest), ""
}
