package httpapi

import (
	"membership-portal/internal/auth"
	"membership-portal/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register mounts the session and member API.
//
// /auth routes only peek at the session cookie so that root login and logout
// keep working while the credential store is down; /v1 routes resolve it
// strictly and answer 503 on an outage.
func Register(r gin.IRouter, h Handlers, sessions *auth.Resolver) {
	authGroup := r.Group("/auth")
	authGroup.Use(auth.PeekSession(sessions))
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
	}

	v1 := r.Group("/v1")
	v1.Use(auth.LoadSession(sessions), auth.RequireSession())
	{
		v1.GET("/me", h.Me)

		admin := v1.Group("/admin")
		admin.Use(rbac.RequirePermission(h.Rbac, rbac.PermAdminAccess))
		{
			admin.GET("/ping", h.AdminPing)
		}
	}
}
