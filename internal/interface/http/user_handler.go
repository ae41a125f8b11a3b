package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/interface/middleware"
	"github.com/oksasatya/go-user-management/pkg/metrics"
	"github.com/oksasatya/go-user-management/pkg/response"
	"github.com/oksasatya/go-user-management/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// DevErrors exposes internal error detail in 500 responses.
	DevErrors bool
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, m *metrics.Metrics, devErrors bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Metrics: m, DevErrors: devErrors}
}

type registerRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,pwd"`
	Role        string `json:"role" binding:"omitempty,oneof=admin user"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	writeError(c, h.Logger, h.DevErrors, err)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, userapp.ErrValidationFailed.Error(), validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
	})
	h.Metrics.ObserveAuth("register", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "", gin.H{"expires_at": res.ExpiresAt})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, userapp.ErrValidationFailed.Error(), validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	h.Metrics.ObserveAuth("login", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "", gin.H{"expires_at": res.ExpiresAt})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.Svc.GetUserByID(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "", nil)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListAllUsers(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "", gin.H{"count": len(users)})
}

// SearchUsers handles GET /users/search?q=&size=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	users, err := h.Svc.SearchUsers(c.Request.Context(), middleware.Identity(c), c.Query("q"), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "", gin.H{"count": len(users)})
}

func (h *UserHandler) BlockUser(c *gin.Context) {
	u, err := h.Svc.BlockUser(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "User blocked successfully", nil)
}
