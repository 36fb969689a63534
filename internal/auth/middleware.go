package auth

import (
	"net/http"

	"membership-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GinPrincipalKey is where LoadSession stores the principal on the gin context.
const GinPrincipalKey = "principal"

// SignInAgain is the only thing a client learns about a rejected session.
const SignInAgain = "please sign in again"

// LoadSession resolves the session cookie on every request and injects the
// principal into the request context. Anonymous requests pass through; use
// RequireSession to demand a caller. A store outage aborts with 503 instead
// of silently treating the caller as logged out.
func LoadSession(r *Resolver) gin.HandlerFunc {
	return loadSession(r, false)
}

// PeekSession is LoadSession for routes that must keep working while the
// credential store is down (login, logout). On an outage the caller is
// treated as anonymous and the cookie is left alone.
func PeekSession(r *Resolver) gin.HandlerFunc {
	return loadSession(r, true)
}

func loadSession(r *Resolver, tolerateOutage bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Request.Cookie(r.tokens.CookieName())
		if err != nil || cookie.Value == "" {
			c.Next()
			return
		}

		p, err := r.Resolve(c.Request.Context(), cookie.Value)
		if err != nil {
			if tolerateOutage {
				logger.FromGin(c).Warn("session unresolved, continuing anonymous", "err", err)
				c.Next()
				return
			}
			logger.FromGin(c).Error("session resolution failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}
		if p == nil {
			// The cookie is dead for good; stop the browser from sending it.
			http.SetCookie(c.Writer, r.tokens.ClearCookie())
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Set(GinPrincipalKey, p)
		c.Next()
	}
}

// RequireSession rejects anonymous callers with a generic 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": SignInAgain})
			return
		}
		c.Next()
	}
}
