package domain

import (
	"math"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusReopened   TicketStatus = "reopened"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusReopened, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory is the service area a ticket belongs to.
type TicketCategory string

const (
	CategoryMaintenance TicketCategory = "maintenance"
	CategoryITSupport   TicketCategory = "it_support"
	CategoryFacilities  TicketCategory = "facilities"
	CategorySecurity    TicketCategory = "security"
	CategoryOther       TicketCategory = "other"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryMaintenance, CategoryITSupport, CategoryFacilities, CategorySecurity, CategoryOther:
		return true
	}
	return false
}

// Suggestion is the classifier output recorded when a ticket is created.
type Suggestion struct {
	Category   TicketCategory `json:"category"`
	Confidence float64        `json:"confidence"`
	Priority   TicketPriority `json:"priority"`
}

// Ticket is the aggregate for service requests. WorkNotes, ProofOfWork and
// ActivityLog are owned by the ticket and only ever appended to.
type Ticket struct {
	ID                    string
	HumanID               string
	OwnerID               string
	AssigneeID            *string
	Title                 string
	Description           string
	Location              string
	Category              TicketCategory
	Priority              TicketPriority
	Status                TicketStatus
	Suggestion            *Suggestion
	Attachments           []Attachment
	AdminRemarks          string
	ResolutionNotes       string
	IsLocked              bool
	ResolvedAt            *time.Time
	ClosedAt              *time.Time
	ResolutionTimeMinutes *int
	ReopenedCount         int
	WorkNotes             []WorkNote
	ProofOfWork           []ProofOfWork
	ActivityLog           []ActivityEntry
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsAssignedTo reports whether the ticket is assigned to userID.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// AddWorkNote appends a progress note.
func (t *Ticket) AddWorkNote(note, authorID string, at time.Time) {
	t.WorkNotes = append(t.WorkNotes, WorkNote{Note: note, AuthorID: authorID, AddedAt: at})
}

// AddProofOfWork appends evidence metadata uploaded by authorID.
func (t *Ticket) AddProofOfWork(files []Attachment, authorID string, at time.Time) {
	for _, f := range files {
		uploadedAt := f.UploadedAt
		if uploadedAt.IsZero() {
			uploadedAt = at
		}
		t.ProofOfWork = append(t.ProofOfWork, ProofOfWork{
			Attachment: Attachment{
				Filename:     f.Filename,
				OriginalName: f.OriginalName,
				MimeType:     f.MimeType,
				Size:         f.Size,
				Path:         f.Path,
				UploadedAt:   uploadedAt,
			},
			AuthorID: authorID,
		})
	}
}

// LogActivity appends an audit entry.
func (t *Ticket) LogActivity(action, performedBy, details string, at time.Time) {
	t.ActivityLog = append(t.ActivityLog, ActivityEntry{
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   at,
		Details:     details,
	})
}

// MarkResolved records the moment the ticket entered resolved.
func (t *Ticket) MarkResolved(at time.Time) {
	t.ResolvedAt = &at
}

// MarkReopened counts a reopen and discards the previous resolution time.
func (t *Ticket) MarkReopened() {
	t.ReopenedCount++
	t.ResolvedAt = nil
}

// MarkClosed stamps closedAt.
func (t *Ticket) MarkClosed(at time.Time) {
	t.ClosedAt = &at
}

// Lock finalizes an accepted ticket. The resolution time is computed only once.
func (t *Ticket) Lock() {
	t.IsLocked = true
	if t.ResolutionTimeMinutes != nil || t.ResolvedAt == nil {
		return
	}
	minutes := int(math.Round(t.ResolvedAt.Sub(t.CreatedAt).Minutes()))
	t.ResolutionTimeMinutes = &minutes
}

// Clone returns a deep copy so callers never share slices with a store.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.AssigneeID = clonePtr(t.AssigneeID)
	c.ResolvedAt = clonePtr(t.ResolvedAt)
	c.ClosedAt = clonePtr(t.ClosedAt)
	c.ResolutionTimeMinutes = clonePtr(t.ResolutionTimeMinutes)
	c.Suggestion = clonePtr(t.Suggestion)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.WorkNotes = append([]WorkNote(nil), t.WorkNotes...)
	c.ProofOfWork = append([]ProofOfWork(nil), t.ProofOfWork...)
	c.ActivityLog = append([]ActivityEntry(nil), t.ActivityLog...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
