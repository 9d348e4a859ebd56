package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is where DeviceAuth stores the parsed claims.
const ClaimsKey = "claims"

// DeviceAuth enforces bearer device tokens.
func DeviceAuth(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// DeviceID returns the authenticated device, or "" when auth is off.
func DeviceID(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(Claims); ok {
			return claims.Device
		}
	}
	return ""
}
