package domain

import (
	"fmt"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected:
		return RequestStatus(s), true
	default:
		return "", false
	}
}

// Well-known request targets: the audience whose list view surfaces the
// ticket. The set is open; a new audience needs no code change, its tickets
// simply appear once something queries for them.
const (
	TargetAdmin      = "admin"
	TargetHR         = "hr"
	TargetManagement = "management"
)

// RequestItem is a work ticket submitted by one role for action by a target
// audience. Creation always starts it in "pending"; no update or delete path
// exists for tickets.
type RequestItem struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	CreatedBy     string         `json:"createdBy"`
	CreatorRole   string         `json:"creatorRole,omitempty"`
	Designation   string         `json:"designation,omitempty"`
	Payload       map[string]any `json:"payload"`
	Target        string         `json:"target"`
	Status        RequestStatus  `json:"status"`
	AttachmentRef string         `json:"attachmentRef,omitempty"`
	Signature     string         `json:"signature,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type CreateRequestInput struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	CreatedBy     string         `json:"createdBy"`
	CreatorRole   string         `json:"creatorRole"`
	Designation   string         `json:"designation"`
	Payload       map[string]any `json:"payload"`
	Target        string         `json:"target"`
	AttachmentRef string         `json:"attachmentRef"`
	Signature     string         `json:"signature"`
}

func (in *CreateRequestInput) Normalize() {
	in.Type = strings.TrimSpace(in.Type)
	in.Title = strings.TrimSpace(in.Title)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	in.Target = strings.ToLower(strings.TrimSpace(in.Target))
}

func (in *CreateRequestInput) Validate() error {
	if in.Type == "" {
		return fmt.Errorf("type is required")
	}
	if in.Title == "" {
		return fmt.Errorf("title is required")
	}
	if in.CreatedBy == "" {
		return fmt.Errorf("createdBy is required")
	}
	if len(in.Payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if in.Target == "" {
		return fmt.Errorf("target is required")
	}
	return nil
}
