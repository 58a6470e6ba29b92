package handler

import (
	"errors"
	"net/http"
	"strings"

	"taskmanager/internal/auth"
	"taskmanager/internal/middleware"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserHandler struct {
	repo     repository.UserRepositoryInterface
	sessions *auth.Sessions
	cookies  auth.CookieConfig
	log      *zap.SugaredLogger
}

func NewUserHandler(repo repository.UserRepositoryInterface, sessions *auth.Sessions, cookies auth.CookieConfig, log *zap.SugaredLogger) *UserHandler {
	registerValidators()
	return &UserHandler{repo: repo, sessions: sessions, cookies: cookies, log: log}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,notblank,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// LoginRequest accepts either username or email. Email wins when both are sent.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user  body      RegisterRequest  true  "Registration data"
// @Success      201   {object}  UserResponse
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]string{}
	if req.Password != req.Password2 {
		fields["password2"] = "Password fields didn't match."
	} else if err := auth.ValidatePassword(req.Password, req.Username, req.Email, req.FirstName, req.LastName); err != nil {
		fields["password"] = err.Error()
	}

	ctx := c.Request.Context()
	taken, err := h.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		internalError(c, h.log, "Failed to check username", err)
		return
	}
	if taken {
		fields["username"] = "A user with that username already exists."
	}

	taken, err = h.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		internalError(c, h.log, "Failed to check email", err)
		return
	}
	if taken {
		fields["email"] = "A user with that email already exists."
	}

	if len(fields) > 0 {
		validationFailed(c, fields)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(c, h.log, "Failed to hash password", err)
		return
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}
	if err := h.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		internalError(c, h.log, "Failed to create user", err)
		return
	}

	h.log.Infow("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// Login godoc
// @Summary      Log in with username or email
// @Description  Returns a token pair and sets the access_token and refresh_token cookies.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      LoginRequest  true  "Credentials"
// @Success      200          {object}  AuthResponse
// @Failure      400          {object}  map[string]interface{}
// @Router       /api/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" && email == "" {
		validationFailed(c, map[string]string{"username": "Username or email is required."})
		return
	}

	ctx := c.Request.Context()
	var (
		user *model.User
		err  error
	)
	if email != "" {
		user, err = h.repo.FindByEmail(ctx, email)
	} else {
		user, err = h.repo.FindByUsername(ctx, username)
	}
	if err != nil {
		internalError(c, h.log, "Failed to find user", err)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	}

	pair, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		internalError(c, h.log, "Failed to issue tokens", err)
		return
	}

	h.cookies.SetTokenCookies(c.Writer, pair)
	c.JSON(http.StatusOK, AuthResponse{
		Access:  pair.Access.Signed,
		Refresh: pair.Refresh.Signed,
		User:    newUserResponse(user),
	})
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Reads the refresh token from the body or the refresh_token cookie. The old token is blacklisted.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  body      RefreshRequest  false  "Refresh token"
// @Success      200    {object}  TokenResponse
// @Failure      401    {object}  map[string]string
// @Router       /api/auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	refresh := h.refreshToken(c)
	if refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required"})
		return
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), refresh)
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidClaims) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
		return
	}
	if err != nil {
		internalError(c, h.log, "Failed to refresh token", err)
		return
	}

	h.cookies.SetTokenCookies(c.Writer, pair)
	c.JSON(http.StatusOK, TokenResponse{Access: pair.Access.Signed, Refresh: pair.Refresh.Signed})
}

// Logout godoc
// @Summary      Log out
// @Description  Blacklists the refresh token when one is presented and clears both cookies.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if refresh := h.refreshToken(c); refresh != "" {
		if err := h.sessions.Revoke(c.Request.Context(), refresh); err != nil {
			h.log.Debugw("logout with unusable refresh token", "error", err)
		}
	}

	h.cookies.ClearTokenCookies(c.Writer)
	c.JSON(http.StatusOK, gin.H{"detail": "Logged out"})
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.log, "Failed to find user", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// refreshToken prefers the body and falls back to the refresh_token cookie.
func (h *UserHandler) refreshToken(c *gin.Context) string {
	var req RefreshRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.Refresh != "" {
		return req.Refresh
	}
	if cookie, err := c.Cookie(auth.RefreshCookie); err == nil {
		return cookie
	}
	return ""
}
