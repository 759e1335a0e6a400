package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"complaint-service/internal/auth"
	"complaint-service/internal/model"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
	accessTokenQuery    = "access_token"
	principalContextKey = "principal"
)

// Auth requires a valid employee token. EventSource clients cannot set
// headers, so the token is also read from the access_token query param.
func Auth(parser *auth.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := parser.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		principal, err := claims.Principal()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !principal.IsEmployee() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "employee access required"})
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	raw := c.GetHeader(authorizationHeader)
	if raw == "" {
		if token := strings.TrimSpace(c.Query(accessTokenQuery)); token != "" {
			return token, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
		return "", false
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	if !ok {
		return model.Principal{}, false
	}
	return principal, true
}
