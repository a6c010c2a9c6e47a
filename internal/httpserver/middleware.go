package httpserver

import (
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const (
	anonymousTokenHeader = "X-Anonymous-Token"

	identityKey    = "identity"
	anonymousIDKey = "anonymousId"
)

// identify resolves the bearer token and the anonymous session token, if any.
// A token that is present but invalid fails the request.
func (h *handlers) identify(c *gin.Context) {
	var id domain.Identity
	if token := bearerToken(c.GetHeader("Authorization")); token != "" {
		resolved, err := h.deps.CustomerSvc.Identify(c.Request.Context(), token)
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		id = resolved
	}
	c.Set(identityKey, id)

	if token := strings.TrimSpace(c.GetHeader(anonymousTokenHeader)); token != "" && h.deps.AnonymousSvc != nil {
		anonID, err := h.deps.AnonymousSvc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(anonymousIDKey, anonID)
	}
	c.Next()
}

func requireCustomer(c *gin.Context) {
	if !identityFrom(c).Authenticated() {
		abortWithError(c, domain.ErrAuthenticationRequired)
		return
	}
	c.Next()
}

func identityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}

func anonymousIDFrom(c *gin.Context) string {
	return c.GetString(anonymousIDKey)
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
