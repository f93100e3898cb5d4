package devstack

import (
	"net/http"
	"strings"

	"forumclient/pkg/validation"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (d *DevStack) setupIdentityRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/register", d.register)
		api.POST("/login", d.login)
		api.POST("/refresh", d.refresh)
		api.POST("/logout", d.logout)
		api.POST("/password-reset", d.passwordReset)
	}
}

func (d *DevStack) issue(c *gin.Context, status int, acct *account) {
	access, err := d.tokens.GenerateToken(acct.identityID, acct.name, acct.email, acct.avatar)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refresh, err := d.tokens.GenerateRefreshToken(acct.identityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate refresh token"})
		return
	}
	c.JSON(status, gin.H{
		"user_id":       acct.identityID,
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    d.tokens.ExpiresIn(),
	})
}

func (d *DevStack) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		d.logger.Errorw("devstack password hashing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	d.state.mu.Lock()
	if _, exists := d.state.accounts[req.Email]; exists {
		d.state.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	acct := &account{
		identityID: newID(),
		name:       strings.TrimSpace(req.Name),
		email:      req.Email,
		avatar:     req.Avatar,
		password:   hash,
	}
	d.state.accounts[req.Email] = acct
	d.state.mu.Unlock()

	d.logger.Infow("devstack account registered", "identity_id", acct.identityID)
	d.issue(c, http.StatusCreated, acct)
}

func (d *DevStack) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	d.state.mu.RLock()
	acct, ok := d.state.accounts[strings.TrimSpace(strings.ToLower(req.Email))]
	d.state.mu.RUnlock()

	if !ok || !acct.checkPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	d.issue(c, http.StatusOK, acct)
}

func (d *DevStack) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	d.state.mu.RLock()
	_, revoked := d.state.revoked[req.RefreshToken]
	d.state.mu.RUnlock()
	if revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked"})
		return
	}

	identityID, err := d.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	acct := d.accountByIdentity(identityID)
	if acct == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
		return
	}

	access, err := d.tokens.GenerateToken(acct.identityID, acct.name, acct.email, acct.avatar)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"expires_in":   d.tokens.ExpiresIn(),
	})
}

func (d *DevStack) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		d.state.mu.Lock()
		d.state.revoked[req.RefreshToken] = struct{}{}
		d.state.mu.Unlock()
	}
	c.Status(http.StatusNoContent)
}

func (d *DevStack) passwordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	// Unknown addresses get the same answer so accounts cannot be probed.
	d.logger.Infow("devstack password reset requested")
	c.JSON(http.StatusAccepted, gin.H{"message": "reset email sent"})
}

func (d *DevStack) accountByIdentity(identityID string) *account {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()
	for _, acct := range d.state.accounts {
		if acct.identityID == identityID {
			return acct
		}
	}
	return nil
}
