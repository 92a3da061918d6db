package domain

import "time"

// Attachment stores metadata for an uploaded file. The bytes live in blob storage.
type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// WorkNote is a free-text progress entry.
type WorkNote struct {
	Note     string    `json:"note"`
	AuthorID string    `json:"author_id"`
	AddedAt  time.Time `json:"added_at"`
}

// ProofOfWork is attachment metadata evidencing completed work.
type ProofOfWork struct {
	Attachment
	AuthorID string `json:"author_id"`
}

// ActivityEntry is an immutable audit trail entry.
type ActivityEntry struct {
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
	Details     string    `json:"details,omitempty"`
}
