package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/server/http/dto"
)

// LeadHandler manages lead-related endpoints.
type LeadHandler struct {
	facade LeadFacade
}

// NewLeadHandler constructs LeadHandler.
func NewLeadHandler(facade LeadFacade) *LeadHandler {
	return &LeadHandler{facade: facade}
}

// List handles GET /api/leads.
func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.facade.VisibleLeads(c.Request.Context(), CurrentViewer(c))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, toLeadResponses(leads))
}

// Create handles POST /api/leads, the external submission path.
func (h *LeadHandler) Create(c *gin.Context) {
	var req dto.LeadCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	lead, err := h.facade.CreateLead(c.Request.Context(), model.LeadDraft{
		Category:       req.Category,
		Equipment:      req.Equipment,
		RentalDuration: req.RentalDuration,
		StartDate:      req.StartDate,
		Budget:         req.Budget,
		Address:        req.Address,
		City:           req.City,
		Region:         req.Region,
		PostalCode:     req.PostalCode,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
		ContactEmail:   req.ContactEmail,
		Details:        req.Details,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidLead) {
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, toLeadResponse(*lead))
}

// Purchase handles POST /api/leads/:id/purchase.
func (h *LeadHandler) Purchase(c *gin.Context) {
	lead, err := h.facade.PurchaseLead(c.Request.Context(), CurrentViewer(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrAlreadyPurchased):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, domainErrors.ErrCapReached):
			c.JSON(http.StatusGone, dto.ErrorResponse{Error: err.Error()})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toLeadResponse(*lead))
}

// SetStatus handles PATCH /api/leads/:id/status.
func (h *LeadHandler) SetStatus(c *gin.Context) {
	var req dto.LeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.facade.SetLeadLabel(c.Request.Context(), CurrentViewer(c), c.Param("id"), req.Label)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrUnauthenticated):
			c.Status(http.StatusUnauthorized)
		case errors.Is(err, domainErrors.ErrForbidden):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)
}
