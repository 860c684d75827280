package middleware

import (
	"context"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/gin-gonic/gin"
)

// GinScope is the gin counterpart of [Scope].
func GinScope(store *goSession.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := scopeContext(c.Request.Context(), store, c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GinRequireAuthenticated is the gin counterpart of [RequireAuthenticated].
func GinRequireAuthenticated(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := admit(c.Request.Context())
		if err != nil {
			if errors.Is(err, goSession.ErrNoStoreInScope) {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), sessionContextKey{}, sess))
		c.Next()
	}
}
