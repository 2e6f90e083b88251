package models

import "time"

// OrderStatus is one of the four fulfillment stages an order passes through.
// The chain is nominally linear, but staff may select any stage at any time.
type OrderStatus string

const (
	StatusReceived OrderStatus = "Received"
	StatusInReview OrderStatus = "In Review"
	StatusPrinting OrderStatus = "Printing"
	StatusReady    OrderStatus = "Ready for Pickup!"
)

// AllStatuses lists every valid status in fulfillment order.
func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusReceived, StatusInReview, StatusPrinting, StatusReady}
}

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusInReview, StatusPrinting, StatusReady:
		return true
	}
	return false
}

// Order represents one customer print-job submission in Firestore.
// FileURL, FileName and Status are only ever set, never unset, once created;
// OrderDate and ReferenceNumber are fixed at creation.
type Order struct {
	// ID is the store-assigned document id. It is the primary key; the
	// reference number is a display key only.
	ID              string      `firestore:"-" json:"id"`
	ReferenceNumber string      `firestore:"orderReferenceNumber" json:"orderReferenceNumber"`
	ClientName      string      `firestore:"clientName" json:"clientName"`
	ClientEmail     string      `firestore:"clientEmail" json:"clientEmail"`
	Notes           string      `firestore:"notes" json:"notes"`
	FileURL         string      `firestore:"fileUrl" json:"fileUrl"`
	FileName        string      `firestore:"fileName" json:"fileName"`
	Status          OrderStatus `firestore:"orderStatus" json:"orderStatus"`
	OrderDate       time.Time   `firestore:"orderDate,serverTimestamp" json:"orderDate"`
	AISummary       string      `firestore:"aiSummary,omitempty" json:"aiSummary,omitempty"`
}

// Normalize fills defaults for fields that older or hand-edited records may
// lack. It is the single normalization step applied at the read boundary.
func (o *Order) Normalize() {
	if !o.Status.Valid() {
		o.Status = StatusReceived
	}
}
