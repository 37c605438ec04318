package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/service"
)

type AuthHandler struct {
	svc *service.AuthSvc
}

func NewAuthHandler(svc *service.AuthSvc) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	u, err := h.svc.Register(c.Request.Context(), in.Email, in.Password, in.Name, in.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	u, tok, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			abort(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"access_token":  tok.AccessToken,
		"refresh_token": tok.RefreshToken,
		"user":          u,
	})
}

// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// PUT /api/users/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		bindFail(c, err)
		return
	}
	u, err := h.svc.UpdateMe(c.Request.Context(), callerFrom(c).ID, in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
