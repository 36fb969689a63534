package rbac

import (
	"net/http"

	"membership-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

const ginGrantKey = "rbac.grant"

// GrantFor computes the caller's grant once per request and caches it on the
// gin context. The second result is false for anonymous requests.
func GrantFor(c *gin.Context, e *Evaluator) (Grant, bool) {
	if v, ok := c.Get(ginGrantKey); ok {
		if g, ok := v.(Grant); ok {
			return g, true
		}
	}
	p, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		return Grant{}, false
	}
	g := e.Compute(p)
	c.Set(ginGrantKey, g)
	return g, true
}

// RequirePermission allows the request only if the caller holds every listed permission.
// Rules:
// - root and full-access principals bypass all checks
// - anonymous callers get 401, authenticated callers without the permission get 403
func RequirePermission(e *Evaluator, perms ...string) gin.HandlerFunc {
	return require(e, func(g Grant) bool { return g.HasAll(perms...) })
}

// RequireAnyPermission allows the request if the caller holds at least one listed permission.
func RequireAnyPermission(e *Evaluator, perms ...string) gin.HandlerFunc {
	return require(e, func(g Grant) bool { return g.HasAny(perms...) })
}

func require(e *Evaluator, allowed func(Grant) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, ok := GrantFor(c, e)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.SignInAgain})
			return
		}
		if !allowed(g) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows principals holding an administrative role, the
// full-access flag, or root.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.SignInAgain})
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
