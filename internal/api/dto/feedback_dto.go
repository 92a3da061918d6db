package dto

import "time"

// FeedbackRequest payload. Every rating is 1..5.
type FeedbackRequest struct {
	Rating              int    `json:"rating"`
	ServiceQuality      int    `json:"service_quality"`
	ResponseTime        int    `json:"response_time"`
	OverallSatisfaction int    `json:"overall_satisfaction"`
	Comments            string `json:"comments"`
}

// FeedbackResponse is a recorded feedback entry.
type FeedbackResponse struct {
	ID                  string    `json:"id"`
	TicketID            string    `json:"ticket_id"`
	AuthorID            string    `json:"author_id"`
	Rating              int       `json:"rating"`
	ServiceQuality      int       `json:"service_quality"`
	ResponseTime        int       `json:"response_time"`
	OverallSatisfaction int       `json:"overall_satisfaction"`
	Comments            string    `json:"comments"`
	CreatedAt           time.Time `json:"created_at"`
}
