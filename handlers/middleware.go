package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

const (
	currentUserKey   = "currentUser"
	accessCookieName = "accessToken"
)

// RoleAuthorizer decides whether a role may perform an action on a resource.
type RoleAuthorizer interface {
	Allowed(role domain.UserRole, resource, action string) (bool, error)
}

// AuthMiddleware resolves the access token from the accessToken cookie or a
// Bearer header and stores the user under currentUser.
func AuthMiddleware(sessions services.SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(accessCookieName)
		if token == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			}
		}
		if token == "" {
			_ = c.Error(domain.Unauthorized("Unauthorized, please login first"))
			c.Abort()
			return
		}

		user, err := sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RoleGate lets the request through only when the caller's role holds the
// permission. It must run after AuthMiddleware.
func RoleGate(authorizer RoleAuthorizer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(domain.Unauthorized("Unauthorized, please login first"))
			c.Abort()
			return
		}
		allowed, err := authorizer.Allowed(user.Role, resource, action)
		if err != nil {
			_ = c.Error(domain.Internal("failed to evaluate permissions", err))
			c.Abort()
			return
		}
		if !allowed {
			_ = c.Error(domain.Forbidden(fmt.Sprintf("Access denied for role %s", user.Role)))
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func ExtractTraceInfoMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
