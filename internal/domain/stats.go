package domain

// DashboardStats summarizes ticket volume and resolution performance.
type DashboardStats struct {
	TotalTickets         int                    `json:"total_tickets"`
	AvgResolutionMinutes float64                `json:"avg_resolution_minutes"`
	TotalReopens         int                    `json:"total_reopens"`
	StatusDistribution   map[TicketStatus]int   `json:"status_distribution"`
	CategoryDistribution map[TicketCategory]int `json:"category_distribution"`
	PriorityDistribution map[TicketPriority]int `json:"priority_distribution"`
}
