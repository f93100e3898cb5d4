package http

import (
	"net/http"
	"strings"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	"forumclient/internal/infrastructure/signal"

	"github.com/gin-gonic/gin"
)

// AuthHandler drives the sign-in forms. Errors go back to the form as 4xx.
type AuthHandler struct {
	accounts ports.AccountService
	store    ports.SessionStore
}

func NewAuthHandler(accounts ports.AccountService, store ports.SessionStore) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		store:    store,
	}
}

func (h *AuthHandler) SetupRoutes(router gin.IRoutes) {
	router.GET(domain.LoginPath, h.LoginView)
	router.POST("/auth/signin", h.SignIn)
	router.POST("/auth/signup", h.SignUp)
	router.POST("/auth/logout", h.Logout)
	router.POST("/auth/password-reset", h.ResetPassword)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) LoginView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"view":    "login",
		"session": signal.NewSessionView(h.store.Snapshot()),
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}

	session, err := h.accounts.SignIn(c.Request.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":     signal.NewSessionView(domain.SessionSnapshot{State: domain.SessionAuthenticated, Session: session}),
		"redirect_to": "/dashboard",
	})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req ports.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	session, err := h.accounts.SignUp(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session":     signal.NewSessionView(domain.SessionSnapshot{State: domain.SessionAuthenticated, Session: session}),
		"redirect_to": "/dashboard",
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.accounts.SignOut(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_to": domain.LoginPath})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "password reset email sent"})
}
