package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ralph2001/marketplace/internal/api/middleware"
	"github.com/Ralph2001/marketplace/internal/auth"
	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/utils"
)

// AuthHandler serves signup, signin and session endpoints.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

func NewAuthHandler(cfg *config.Config, userService services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, userService: userService}
}

type signupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type signinRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) issueToken(c *gin.Context, userID utils.ShortID, email string) (string, bool) {
	ttl := time.Duration(h.cfg.JWTTTLSeconds) * time.Second
	token, err := auth.GenerateJWT(h.cfg.JWTSecret, userID, email, ttl)
	if err != nil {
		log.Printf("Error generating token for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session."})
		return "", false
	}
	return token, true
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.issueToken(c, user.ID, user.Email)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Signin handles POST /api/auth/signin.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Error authenticating %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in."})
		return
	}

	token, ok := h.issueToken(c, user.ID, user.Email)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextKeyUserID).(utils.ShortID)

	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}
		log.Printf("Error loading user %s: %v", userID.String(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account."})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Signout handles POST /api/auth/signout. Sessions are stateless JWTs, so
// the server has nothing to revoke; clients drop the token.
func (h *AuthHandler) Signout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
