package domain

import (
	"fmt"
	"strings"
	"time"
)

type InquiryStatus string

const (
	InquiryNew      InquiryStatus = "new"
	InquiryRead     InquiryStatus = "read"
	InquiryResolved InquiryStatus = "resolved"
)

// Inquiry is a guest-submitted message awaiting staff response. The schema
// unifies the two historical variants (one keyed by guest id, one by email);
// either identifier is accepted at creation and both are stored.
type Inquiry struct {
	ID         string        `json:"id"`
	GuestID    string        `json:"guestId,omitempty"`
	GuestName  string        `json:"guestName"`
	GuestEmail string        `json:"guestEmail,omitempty"`
	Subject    string        `json:"subject"`
	Message    string        `json:"message"`
	Status     InquiryStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type CreateInquiryInput struct {
	GuestID    string `json:"guestId"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

func (in *CreateInquiryInput) Normalize() {
	in.GuestID = strings.TrimSpace(in.GuestID)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestEmail = NormalizeEmail(in.GuestEmail)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
}

func (in *CreateInquiryInput) Validate() error {
	if in.GuestName == "" {
		return fmt.Errorf("guestName is required")
	}
	if in.GuestEmail == "" && in.GuestID == "" {
		return fmt.Errorf("guestEmail or guestId is required")
	}
	if in.GuestEmail != "" && !IsValidEmail(in.GuestEmail) {
		return fmt.Errorf("invalid email format")
	}
	if in.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if in.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
