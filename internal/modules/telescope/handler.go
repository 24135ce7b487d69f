package telescope

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"observatory/internal/domain"
	"observatory/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/telescopes", h.List)
	rg.GET("/telescopes/:id", h.GetDetail)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/telescopes", h.Create)
	rg.PUT("/telescopes/:id", h.Update)
	rg.DELETE("/telescopes/:id", h.Deactivate)
}

func (h *Handler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" &&
		domain.Role(c.GetString("role")) == domain.RoleAdmin

	list, err := h.service.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load telescopes")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"telescopes": list})
}

func (h *Handler) GetDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid telescope id")
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), id)
	if err != nil {
		if err == domain.ErrNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Telescope not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load telescope")
		return
	}
	response.Success(c, http.StatusOK, detail)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateTelescopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch err {
		case ErrInvalidName, ErrInvalidTemplate:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create telescope")
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"telescope": t})
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid telescope id")
		return
	}

	var req UpdateTelescopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch err {
		case ErrInvalidName, ErrInvalidTemplate:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case domain.ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Telescope not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update telescope")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"telescope": t})
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid telescope id")
		return
	}

	t, err := h.service.Deactivate(c.Request.Context(), id)
	if err != nil {
		if err == domain.ErrNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Telescope not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to deactivate telescope")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"telescope": t})
}
