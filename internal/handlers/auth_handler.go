package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/middleware"
	"empire/internal/models"
	"empire/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	tokens       *middleware.TokenIssuer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, tokens *middleware.TokenIssuer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, tokens: tokens, auditService: auditService}
}

// SignupRequest represents the registration request payload
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,notblank"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Avatar   string `json:"avatar" binding:"omitempty,url"`
}

// SigninRequest represents the login request payload
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest holds optional profile changes.
type UpdateProfileRequest struct {
	Username        *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email           *string `json:"email" binding:"omitempty,email,max=255"`
	Avatar          *string `json:"avatar" binding:"omitempty,url"`
	CurrentPassword string  `json:"current_password"`
	Password        *string `json:"password" binding:"omitempty,min=6,max=128"`
}

// AuthResponse is the session returned by signup, signin and refresh.
type AuthResponse struct {
	User *models.User `json:"user"`
	middleware.TokenPair
}

// Signup handles user registration
// @Summary     Register a new user
// @Description Create an account and start a session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(req.Username, req.Email, req.Password, req.Avatar)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.startSession(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "SIGNUP", "user", user.ID, c.ClientIP(), nil)
	respondCreated(c, session, "User registered successfully")
}

// Signin handles user login
// @Summary     Sign in
// @Description Authenticate with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SigninRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.startSession(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "SIGNIN", "user", user.ID, c.ClientIP(), nil)
	respondOK(c, session)
}

// Refresh rotates a refresh token
// @Summary     Refresh tokens
// @Description Exchange the latest refresh token for a new token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New token pair"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid refresh token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidRefreshToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			err = apperrors.ErrInvalidRefreshToken
		}
		respondWithError(c, err)
		return
	}
	presented := middleware.HashToken(req.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		respondWithError(c, apperrors.ErrInvalidRefreshToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.startSession(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, session)
}

// Me returns the user's profile
// @Summary     Get current user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, user)
}

// UpdateProfile changes username, email, avatar or password
// @Summary     Update profile
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile changes"
// @Success     200 {object} models.User "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Wrong current password"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		Avatar:          req.Avatar,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.Password,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Username != nil {
		changes["username"] = *req.Username
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.Password != nil {
		changes["password"] = "changed"
	}
	h.auditService.Log(userID, "UPDATE_PROFILE", "user", userID, c.ClientIP(), changes)
	middleware.RespondOK(c, http.StatusOK, user, "Profile updated successfully")
}

// startSession issues a token pair and records the refresh token hash so
// only the newest refresh token stays valid.
func (h *AuthHandler) startSession(user *models.User) (*AuthResponse, error) {
	pair, err := h.tokens.GeneratePair(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(pair.RefreshToken)); err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, TokenPair: *pair}, nil
}
