package dto

import (
	"time"

	"github.com/campusdesk/service-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Location    string                `json:"location"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Attachments []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest describes already-uploaded file metadata.
type AttachmentRequest struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

// TransitionRequest payload for PUT /tickets/:id/status.
type TransitionRequest struct {
	Status          domain.TicketStatus `json:"status"`
	AdminRemarks    *string             `json:"admin_remarks"`
	ResolutionNotes *string             `json:"resolution_notes"`
	AssigneeID      *string             `json:"assignee_id"`
	WorkNote        string              `json:"work_note"`
	ProofFiles      []AttachmentRequest `json:"proof_files"`
}

// ConfirmRequest payload; action is "accept" or "reject".
type ConfirmRequest struct {
	Action string `json:"action"`
}

// BulkUpdateRequest payload. Updates keys are status, priority, assigneeId
// and adminRemarks.
type BulkUpdateRequest struct {
	TicketIDs []string       `json:"ticket_ids"`
	Updates   map[string]any `json:"updates"`
}

// BulkUpdateResponse reports matched and modified tickets.
type BulkUpdateResponse struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ProofOfWorkResponse is evidence uploaded by a technician.
type ProofOfWorkResponse struct {
	AttachmentResponse
	UploadedBy string `json:"uploaded_by"`
}

// WorkNoteResponse is a technician progress note.
type WorkNoteResponse struct {
	Note     string    `json:"note"`
	AuthorID string    `json:"author_id"`
	AddedAt  time.Time `json:"added_at"`
}

// ActivityResponse is one audit log entry.
type ActivityResponse struct {
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
	Details     string    `json:"details"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID                    string                `json:"id"`
	HumanID               string                `json:"human_id"`
	OwnerID               string                `json:"owner_id"`
	AssigneeID            *string               `json:"assignee_id"`
	Title                 string                `json:"title"`
	Description           string                `json:"description"`
	Location              string                `json:"location"`
	Category              domain.TicketCategory `json:"category"`
	Priority              domain.TicketPriority `json:"priority"`
	Status                domain.TicketStatus   `json:"status"`
	AISuggestion          *domain.Suggestion    `json:"ai_suggestion,omitempty"`
	Attachments           []AttachmentResponse  `json:"attachments"`
	AdminRemarks          string                `json:"admin_remarks"`
	ResolutionNotes       string                `json:"resolution_notes"`
	IsLocked              bool                  `json:"is_locked"`
	ResolvedAt            *time.Time            `json:"resolved_at"`
	ClosedAt              *time.Time            `json:"closed_at"`
	ResolutionTimeMinutes *int                  `json:"resolution_time_minutes"`
	ReopenedCount         int                   `json:"reopened_count"`
	WorkNotes             []WorkNoteResponse    `json:"work_notes"`
	ProofOfWork           []ProofOfWorkResponse `json:"proof_of_work"`
	ActivityLog           []ActivityResponse    `json:"activity_log"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items  []TicketResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}
