package dto

// LeadCreateRequest carries descriptive fields accepted by the intake path.
type LeadCreateRequest struct {
	Category       string   `json:"category"`
	Equipment      []string `json:"equipment"`
	RentalDuration string   `json:"rental_duration"`
	StartDate      string   `json:"start_date"`
	Budget         string   `json:"budget"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	Region         string   `json:"region"`
	PostalCode     string   `json:"postal_code"`
	ContactName    string   `json:"contact_name"`
	ContactPhone   string   `json:"contact_phone"`
	ContactEmail   string   `json:"contact_email"`
	Details        string   `json:"details"`
}

// LeadStatusRequest sets the auxiliary status label.
type LeadStatusRequest struct {
	Label string `json:"label"`
}

// LeadResponse is the transport form of a lead. Timestamps are string-encoded.
type LeadResponse struct {
	ID             string            `json:"id"`
	Category       string            `json:"category"`
	Equipment      []string          `json:"equipment,omitempty"`
	RentalDuration string            `json:"rental_duration,omitempty"`
	StartDate      string            `json:"start_date,omitempty"`
	Budget         string            `json:"budget,omitempty"`
	Address        string            `json:"address,omitempty"`
	City           string            `json:"city,omitempty"`
	Region         string            `json:"region,omitempty"`
	PostalCode     string            `json:"postal_code,omitempty"`
	ContactName    string            `json:"contact_name"`
	ContactPhone   string            `json:"contact_phone,omitempty"`
	ContactEmail   string            `json:"contact_email,omitempty"`
	Details        string            `json:"details,omitempty"`
	Status         string            `json:"status"`
	Label          string            `json:"label,omitempty"`
	CreatedAt      string            `json:"created_at"`
	PurchasedBy    []int64           `json:"purchased_by,omitempty"`
	PurchaseDates  map[string]string `json:"purchase_dates,omitempty"`
}

// FeedSnapshot is one full replacement emission of the live feed.
type FeedSnapshot struct {
	Version uint64         `json:"version"`
	Leads   []LeadResponse `json:"leads"`
}

// ErrorResponse carries a typed failure to the client.
type ErrorResponse struct {
	Error string `json:"error"`
}
