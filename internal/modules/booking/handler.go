package booking

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"observatory/internal/domain"
	"observatory/internal/pkg/response"
	"observatory/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes slot lookup without authentication; the
// booking widget calls it before the visitor logs in.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/telescopes/:id/slots", h.ListAvailableSlots)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListMyBookings)
	rg.POST("/bookings", h.CreateBooking)
	rg.DELETE("/bookings/:id", h.CancelBooking)
	rg.PATCH("/bookings/:id/status", h.SetStatus)
}

func (h *Handler) ListAvailableSlots(c *gin.Context) {
	telescopeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || telescopeID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid telescope id")
		return
	}
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Date parameter required")
		return
	}

	slots, err := h.service.ListAvailableSlots(c.Request.Context(), telescopeID, date)
	if err != nil {
		switch err {
		case ErrInvalidDate:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case ErrTelescopeUnavailable:
			response.Error(c, http.StatusBadRequest, "TELESCOPE_UNAVAILABLE", err.Error())
		case domain.ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Telescope not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute availability")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListMyBookings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", fields)
		return
	}

	userID := c.GetInt64("user_id")
	b, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		switch err {
		case ErrInvalidWindow, ErrPastBooking, ErrInvalidPurpose, ErrInvalidNotes:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case ErrTelescopeUnavailable:
			response.Error(c, http.StatusBadRequest, "TELESCOPE_UNAVAILABLE", err.Error())
		case domain.ErrSlotConflict:
			// Distinguishable from generic failure so the client can offer
			// a re-select.
			response.Error(c, http.StatusConflict, "SLOT_CONFLICT", "Time slot is no longer available, please re-select")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	userID := c.GetInt64("user_id")
	b, err := h.service.CancelBooking(c.Request.Context(), id, userID)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case ErrForbidden:
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not your booking")
		case ErrAlreadyTerminal:
			response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		case ErrCancellationCutoff:
			response.Error(c, http.StatusBadRequest, "CANCELLATION_CUTOFF",
				fmt.Sprintf("Cannot cancel less than %s before start time", CancellationCutoff))
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to cancel booking")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	status, ok := domain.ParseBookingStatus(req.Status)
	if !ok {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status")
		return
	}

	role := domain.Role(c.GetString("role"))
	b, err := h.service.SetStatus(c.Request.Context(), id, status, role)
	if err != nil {
		switch err {
		case ErrForbidden:
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		case domain.ErrNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case domain.ErrInvalidTransition:
			response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update status")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}
