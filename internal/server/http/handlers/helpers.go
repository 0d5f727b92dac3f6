package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/server/http/dto"
	"github.com/drobyshev/leadmart/internal/server/http/middleware"
)

// CurrentViewer extracts the authenticated viewer from context, nil when anonymous.
func CurrentViewer(c *gin.Context) *model.Viewer {
	val, ok := c.Get(middleware.ViewerContextKey)
	if !ok {
		return nil
	}
	viewer, _ := val.(*model.Viewer)
	return viewer
}

func toLeadResponse(lead model.Lead) dto.LeadResponse {
	resp := dto.LeadResponse{
		ID:             lead.ID,
		Category:       lead.Category,
		Equipment:      lead.Equipment,
		RentalDuration: lead.RentalDuration,
		StartDate:      lead.StartDate,
		Budget:         lead.Budget,
		Address:        lead.Address,
		City:           lead.City,
		Region:         lead.Region,
		PostalCode:     lead.PostalCode,
		ContactName:    lead.ContactName,
		ContactPhone:   lead.ContactPhone,
		ContactEmail:   lead.ContactEmail,
		Details:        lead.Details,
		Status:         string(lead.Status),
		Label:          lead.Label,
		CreatedAt:      lead.CreatedAt.UTC().Format(time.RFC3339),
		PurchasedBy:    lead.PurchasedBy,
	}
	if len(lead.PurchaseDates) > 0 {
		resp.PurchaseDates = make(map[string]string, len(lead.PurchaseDates))
		for buyerID, at := range lead.PurchaseDates {
			resp.PurchaseDates[formatBuyerID(buyerID)] = at.UTC().Format(time.RFC3339)
		}
	}
	return resp
}

func formatBuyerID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toLeadResponses(leads []model.Lead) []dto.LeadResponse {
	out := make([]dto.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, toLeadResponse(lead))
	}
	return out
}
