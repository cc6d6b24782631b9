package handler

import "campreg/internal/registration"

// SubmitRequest carries a candidate submission. The receipt arrives as bytes
// and is uploaded only after the roster passes validation, so a failed
// upload never leaves a half-made batch.
type SubmitRequest struct {
	ChurchID    string              `json:"church_id,omitempty"`
	EventID     string              `json:"event_id"`
	Roster      registration.Roster `json:"roster"`
	ReceiptData []byte              `json:"receipt_data,omitempty"`
	ContentType string              `json:"receipt_content_type,omitempty"`
	ReceiptURL  string              `json:"receipt_url,omitempty"`
}

type EditRequest struct {
	Roster      registration.Roster `json:"roster"`
	ReceiptData []byte              `json:"receipt_data,omitempty"`
	ContentType string              `json:"receipt_content_type,omitempty"`
	ReceiptURL  string              `json:"receipt_url,omitempty"`
}

type ReviewRequest struct {
	Decision registration.Decision `json:"decision"`
	Remarks  string                `json:"remarks,omitempty"`
}

type ExtractRequest struct {
	Image      []byte `json:"image"`
	FirstBatch bool   `json:"first_batch"`
}
