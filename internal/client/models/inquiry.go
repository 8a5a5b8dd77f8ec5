package models

import "time"

// Inquiry is a visitor's contact request, optionally about one listing.
// It is write-only from the client's point of view.
type Inquiry struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,min=10,max=20"`
	Message    string `json:"message" validate:"required,min=10"`
	PropertyID *int64 `json:"property_id,omitempty" validate:"omitempty,gt=0"`
}

// InquiryConfirmation is the server acknowledgement of a stored inquiry.
type InquiryConfirmation struct {
	ID         int64     `json:"id"`
	PropertyID *int64    `json:"property_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// InquiryRecord is an inquiry as listed in the admin area.
type InquiryRecord struct {
	Inquiry
	ID        int64     `json:"id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
