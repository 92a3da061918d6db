// Package classifier suggests a category and priority from ticket text
// using keyword matching.
package classifier

import (
	"math"
	"strings"

	"github.com/campusdesk/service-desk/internal/domain"
)

type categoryKeywords struct {
	category domain.TicketCategory
	keywords []string
}

// Ties go to the earlier category.
var categories = []categoryKeywords{
	{domain.CategoryITSupport, []string{"computer", "laptop", "wifi", "internet", "network", "printer", "software", "password", "email", "projector", "screen", "monitor", "keyboard", "mouse", "system", "server", "website", "app", "login"}},
	{domain.CategoryMaintenance, []string{"repair", "broken", "fix", "damage", "leak", "crack", "paint", "door", "window", "furniture", "chair", "table", "fan", "light", "bulb", "switch", "socket"}},
	{domain.CategoryFacilities, []string{"ac", "air conditioning", "heating", "cooling", "temperature", "clean", "dirty", "toilet", "washroom", "bathroom", "water", "electricity", "power", "lift", "elevator"}},
	{domain.CategorySecurity, []string{"lock", "key", "theft", "stolen", "lost", "found", "suspicious", "safety", "emergency", "fire", "alarm", "cctv", "camera", "guard", "access", "entry"}},
}

var (
	urgentKeywords = []string{"urgent", "emergency", "critical", "immediately", "asap", "broken", "not working", "fire", "leak", "danger"}
	highKeywords   = []string{"important", "soon", "quickly", "problem", "issue", "major"}
	lowKeywords    = []string{"minor", "small", "whenever", "eventually"}
)

// Classifier produces a Suggestion for new tickets.
type Classifier interface {
	Suggest(title, description string) domain.Suggestion
}

// Keyword is the default keyword-count heuristic.
type Keyword struct{}

// Suggest combines Categorize and DeterminePriority.
func (Keyword) Suggest(title, description string) domain.Suggestion {
	category, confidence := Categorize(title, description)
	return domain.Suggestion{
		Category:   category,
		Confidence: confidence,
		Priority:   DeterminePriority(title, description),
	}
}

// Categorize returns the category with the most keyword hits and a
// confidence in 0..100, where three hits is full confidence.
func Categorize(title, description string) (domain.TicketCategory, float64) {
	text := normalize(title, description)
	best, bestScore := domain.CategoryOther, 0
	for _, c := range categories {
		score := 0
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.category, score
		}
	}
	if bestScore == 0 {
		return domain.CategoryOther, 0
	}
	return best, math.Min(float64(bestScore)/3*100, 100)
}

// DeterminePriority picks the first matching tier, defaulting to medium.
func DeterminePriority(title, description string) domain.TicketPriority {
	text := normalize(title, description)
	switch {
	case containsAny(text, urgentKeywords):
		return domain.TicketPriorityUrgent
	case containsAny(text, highKeywords):
		return domain.TicketPriorityHigh
	case containsAny(text, lowKeywords):
		return domain.TicketPriorityLow
	}
	return domain.TicketPriorityMedium
}

func normalize(title, description string) string {
	return strings.ToLower(title + " " + description)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
