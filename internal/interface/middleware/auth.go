package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trade-ham/marketplace-api/pkg/helpers"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

// AccessTokenParser validates access tokens; refresh tokens must be rejected.
type AccessTokenParser interface {
	ParseAccess(token string) (*helpers.Claims, error)
}

func setPrincipal(c *gin.Context, claims *helpers.Claims) {
	c.Set(CtxPrincipalKey, Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
	c.Set(CtxUserIDKey, strconv.FormatInt(claims.UserID, 10))
}

// Auth requires a valid access token and sets the Principal in the Gin context.
func Auth(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := tokens.ParseAccess(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		setPrincipal(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the Principal when a valid access token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := accessToken(c); token != "" {
			if claims, err := tokens.ParseAccess(token); err == nil {
				setPrincipal(c, claims)
			}
		}
		c.Next()
	}
}
