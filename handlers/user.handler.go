package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

type UserHandler struct {
	authService services.AuthService
	userService services.UserService
	cookies     CookieConfig
	Tracer      trace.Tracer
}

func NewUserHandler(authService services.AuthService, userService services.UserService, cookies CookieConfig, tr trace.Tracer) UserHandler {
	return UserHandler{authService, userService, cookies, tr}
}

func (h *UserHandler) Register(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "UserHandler.Register")
	defer span.End()

	var input domain.RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		abort(c, span, invalidBody())
		return
	}
	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		abort(c, span, err)
		return
	}
	defer closeAvatar()

	result, err := h.authService.Register(ctx, &input, avatar)
	if err != nil {
		abort(c, span, err)
		return
	}
	h.cookies.setSession(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusCreated, "User registered successfully", result)
}

func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "UserHandler.Login")
	defer span.End()

	var input domain.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, span, invalidBody())
		return
	}
	result, err := h.authService.Login(ctx, &input)
	if err != nil {
		abort(c, span, err)
		return
	}
	h.cookies.setSession(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusOK, "User logged in successfully", result)
}

// RefreshToken reads the refresh token from its cookie and falls back to the body.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "UserHandler.RefreshToken")
	defer span.End()

	token, _ := c.Cookie(refreshCookieName)
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.ShouldBindJSON(&body)
		token = body.RefreshToken
	}

	accessToken, err := h.authService.RefreshAccessToken(ctx, token)
	if err != nil {
		abort(c, span, err)
		return
	}
	h.cookies.set(c, accessCookieName, accessToken, h.cookies.AccessTTL)
	respond(c, http.StatusOK, "Access token refreshed successfully", gin.H{"accessToken": accessToken})
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.cookies.clearSession(c)
	respond(c, http.StatusOK, "User logged out successfully", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "UserHandler.ResetPassword")
	defer span.End()

	user, _ := CurrentUser(c)
	var input domain.ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abort(c, span, invalidBody())
		return
	}
	if err := h.authService.ResetPassword(ctx, user, &input); err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Password reset successfully", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, _ := CurrentUser(c)
	respond(c, http.StatusOK, "User profile retrieved successfully", gin.H{"user": user.Response()})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx, span := h.Tracer.Start(c.Request.Context(), "UserHandler.UpdateProfile")
	defer span.End()

	user, _ := CurrentUser(c)
	var input domain.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		abort(c, span, invalidBody())
		return
	}
	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		abort(c, span, err)
		return
	}
	defer closeAvatar()

	updated, err := h.userService.UpdateProfile(ctx, user, &input, avatar)
	if err != nil {
		abort(c, span, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", gin.H{"user": updated})
}
