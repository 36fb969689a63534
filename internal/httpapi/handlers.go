package httpapi

import (
	"errors"
	"net/http"

	"membership-portal/internal/auth"
	"membership-portal/internal/rbac"
	"membership-portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth *auth.Service
	Rbac *rbac.Evaluator
}

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// --- Session ---

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Login checks credentials and sets the session cookie.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := validate.Struct(req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	case errors.Is(err, auth.ErrTooManyAttempts):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts, try again later"})
		return
	case errors.Is(err, auth.ErrStoreUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
		return
	default:
		logger.FromGin(c).Error("login failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	http.SetCookie(c.Writer, res.Session.Cookie)
	c.JSON(http.StatusOK, gin.H{"id": res.SubjectID, "email": res.Email})
}

// Logout clears the session cookie. It succeeds for anonymous callers too.
func (h Handlers) Logout(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	p, _ := auth.PrincipalFrom(c.Request.Context())
	http.SetCookie(c.Writer, h.Auth.Logout(c.Request.Context(), p, c.ClientIP()))
	c.Status(http.StatusNoContent)
}

// --- Identity ---

type meResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Root        bool     `json:"root"`
	Admin       bool     `json:"admin"`
	DisplayRole string   `json:"display_role"`
	Permissions []string `json:"permissions"`
}

// Me describes the caller and its effective permissions.
func (h Handlers) Me(c *gin.Context) {
	p, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.SignInAgain})
		return
	}
	if h.Rbac == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rbac not configured"})
		return
	}
	g, _ := rbac.GrantFor(c, h.Rbac)
	c.JSON(http.StatusOK, meResponse{
		ID:          p.SubjectID(),
		Email:       p.EmailAddress(),
		Root:        p.IsRoot(),
		Admin:       p.IsAdmin(),
		DisplayRole: g.DisplayRoleOr(rbac.DefaultDisplayRole),
		Permissions: g.List(),
	})
}

// --- Admin ---

func (h Handlers) AdminPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
