package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trade-ham/marketplace-api/pkg/helpers"
)

const (
	CtxUserIDKey    = "userID"
	CtxPrincipalKey = "principal"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

// PrincipalFrom returns the caller set by Auth or OptionalAuth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// accessToken reads the "access" header, falling back to an Authorization bearer.
func accessToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(helpers.AccessHeader)); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
