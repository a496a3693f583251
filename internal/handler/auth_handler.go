package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	auth        *middleware.AuthMiddleware
}

func NewAuthHandler(authService service.AuthService, userService service.UserService, auth *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, auth: auth}
}

// RegisterRoutes binds the auth endpoints
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/forgotpassword", h.ForgotPassword)

		auth.POST("/logout", h.auth.Protect(), h.Logout)
		auth.GET("/me", h.auth.Protect(), h.GetMe)
		auth.PUT("/updatepassword", h.auth.Protect(), h.UpdatePassword)
		auth.POST("/register", h.auth.Protect(), middleware.RequirePermission("create_user"), h.Register)
	}
}

// Login authenticates by email and password and returns a session token
// @Summary      Login
// @Description  Authenticates a user by email and password, returning a JWT token and the user with its resolved role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.AuthResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	middleware.SetTokenCookie(c, res.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Logout clears the session cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "logged out"}))
}

// GetMe returns the current authenticated user with its resolved role
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), sess.User.ID.String())
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdatePassword rotates the caller's password and issues a fresh token
// @Summary      Update password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ChangePasswordRequest  true  "Password Change Payload"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/updatepassword [put]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.authService.ChangePassword(c.Request.Context(), sess.User.ID, req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	middleware.SetTokenCookie(c, res.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Register creates a new user account (administrators only)
// @Summary      Register user
// @Description  Creates a new user. Requires the create_user permission; there is no self-registration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// ForgotPassword acknowledges a reset request. Delivery is not implemented.
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ForgotPasswordRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Router       /auth/forgotpassword [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email is required"))
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		status, body := response.FromError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "if the email exists, reset instructions will be sent"}))
}
