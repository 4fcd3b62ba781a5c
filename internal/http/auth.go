package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/security"
)

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Hometown string `json:"hometown"`
	// Ref is the id of the member whose invite link was used.
	Ref string `json:"ref"`
}

type tokenResp struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Register godoc
// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201 {object} tokenResp
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}
	if err := security.CheckStrength(in.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.Name),
		Hometown:     strings.TrimSpace(in.Hometown),
		Provider:     "local",
	}
	if _, err := primitive.ObjectIDFromHex(in.Ref); err == nil {
		u.ReferredBy = in.Ref
	}
	if err := h.Store.CreateUser(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	h.Events.Registered(reqCtx(c), u)

	resp, err := h.issue(c, u, "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} tokenResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Store.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil {
		fail(c, err)
		return
	}
	if u == nil || u.PasswordHash == "" || !security.CheckPassword(u.PasswordHash, in.Password) {
		fail(c, domain.ErrInvalidCredentials)
		return
	}
	resp, err := h.issue(c, u, "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// issue mints an access token and a refresh token in family (a new family
// when empty).
func (h *Handler) issue(c *gin.Context, u *domain.User, family string) (tokenResp, error) {
	tok, err := security.MakeAccess(h.JWTSecret, security.Identity{
		UID: u.ID.Hex(), Email: u.Email, Name: u.DisplayName, Role: u.Role,
	}, h.AccessTTL)
	if err != nil {
		return tokenResp{}, err
	}
	if family == "" {
		family = uuid.NewString()
	}
	ref, err := security.NewRefreshToken()
	if err != nil {
		return tokenResp{}, err
	}
	if err := h.Store.SaveRefresh(c.Request.Context(), u.ID, family, ref, h.RefreshTTL); err != nil {
		return tokenResp{}, err
	}
	return tokenResp{Access: tok, Refresh: ref}, nil
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

// Refresh godoc
// @Summary Rotate refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body refreshReq true "refresh"
// @Success 200 {object} tokenResp
// @Failure 401 {object} map[string]string
// @Router /api/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var in refreshReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rt, err := h.Store.RotateRefresh(c.Request.Context(), in.Refresh)
	if err != nil {
		fail(c, err)
		return
	}
	if rt == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh"})
		return
	}
	u, err := h.Store.FindUserByID(c.Request.Context(), rt.UserID.Hex())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	resp, err := h.issue(c, u, rt.Family)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags auth
// @Accept json
// @Param payload body refreshReq true "refresh"
// @Success 204
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var in refreshReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Store.RevokeRefresh(c.Request.Context(), in.Refresh); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.Store.FindUserByID(c.Request.Context(), viewer(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// GoogleStart redirects to the Google consent screen.
func (h *Handler) GoogleStart(c *gin.Context) {
	if !h.Google.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in disabled"})
		return
	}
	c.Redirect(http.StatusFound, h.Google.AuthURL(h.Google.MakeState(uuid.NewString())))
}

// GoogleCallback signs the Google account in, creating it on first use.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if !h.Google.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in disabled"})
		return
	}
	if !h.Google.VerifyState(c.Query("state")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad state"})
		return
	}
	gu, err := h.Google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Ctx(c.Request.Context()).Warn("google exchange", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	u, err := h.Store.UpsertGoogleUser(c.Request.Context(), gu.Sub, gu.Email, gu.Name)
	if err != nil {
		fail(c, err)
		return
	}
	resp, err := h.issue(c, u, "")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
