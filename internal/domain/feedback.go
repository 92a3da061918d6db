package domain

import "time"

// Feedback captures the requester's rating of a resolved ticket. At most one per ticket.
type Feedback struct {
	ID                  string
	TicketID            string
	AuthorID            string
	Rating              int
	ServiceQuality      int
	ResponseTime        int
	OverallSatisfaction int
	Comments            string
	CreatedAt           time.Time
}

// FeedbackStats aggregates ratings across all feedback.
type FeedbackStats struct {
	TotalFeedback      int         `json:"total_feedback"`
	AvgRating          float64     `json:"avg_rating"`
	AvgServiceQuality  float64     `json:"avg_service_quality"`
	AvgResponseTime    float64     `json:"avg_response_time"`
	AvgSatisfaction    float64     `json:"avg_satisfaction"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}
