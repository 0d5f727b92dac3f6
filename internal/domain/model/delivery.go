package model

import "time"

// DeliveryState describes progress of handing a purchased lead to its buyer.
type DeliveryState string

const (
	DeliveryStatePending   DeliveryState = "pending"
	DeliveryStateSending   DeliveryState = "sending"
	DeliveryStateDelivered DeliveryState = "delivered"
	DeliveryStateFailed    DeliveryState = "failed"
)

// Delivery is a queued hand-off of a purchased lead to one buyer.
type Delivery struct {
	ID        int64
	LeadID    string
	BuyerID   int64
	State     DeliveryState
	CreatedAt time.Time
	UpdatedAt time.Time
}
