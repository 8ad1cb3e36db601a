package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Verify(BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			status := "invalid_token"
			if errors.Is(err, ErrMissingCredentials) {
				status = "missing_token"
			}
			c.Header("WWW-Authenticate", `Bearer realm="taskstore"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": status})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
