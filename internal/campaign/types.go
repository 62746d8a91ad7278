package campaign

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActivityLevel is the ordinal social activity estimate.
type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "low"
	ActivityMedium ActivityLevel = "medium"
	ActivityHigh   ActivityLevel = "high"
)

// EnrichmentSignals is the simulated social profile produced once per run.
type EnrichmentSignals struct {
	Interests        []string      `json:"interests"`
	Tone             string        `json:"tone"`
	Activity         ActivityLevel `json:"activity"`
	EngagementRatio  float64       `json:"engagement_ratio"`
	PostingFrequency string        `json:"posting_frequency"`
}

// Category is the closed classification label set.
type Category string

const (
	CategoryPremiumHighEngagement Category = "premium_high_engagement"
	CategoryMediumConservative    Category = "medium_conservative"
	CategoryBasicGrowthPotential  Category = "basic_growth_potential"
	CategoryHighRisk              Category = "high_risk"
)

// Categories lists every category in rule priority order.
var Categories = []Category{
	CategoryPremiumHighEngagement,
	CategoryHighRisk,
	CategoryMediumConservative,
	CategoryBasicGrowthPotential,
}

// Known reports whether c is one of the four defined categories.
func (c Category) Known() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label renders the category for people, e.g. "Premium High Engagement".
func (c Category) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

// Artifact is the campaign chosen for a category.
type Artifact struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Template    string   `json:"template"`
	CTA         string   `json:"cta"`
	Channel     string   `json:"channel"`
	Target      Category `json:"target_category"`
	BaseMessage string   `json:"-"`
}

// Metrics are simulated performance estimates.
type Metrics struct {
	ClickThrough float64 `json:"click_through"`
	OpenRate     float64 `json:"open_rate"`
}

// CampaignBlock is the artifact section of a Payload.
type CampaignBlock struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
	CTA      string `json:"cta"`
	Channel  string `json:"channel"`
}

// SocialProfile is the enrichment section of a Payload.
type SocialProfile struct {
	Channel    string        `json:"channel"`
	Interests  []string      `json:"interests"`
	Tone       string        `json:"tone"`
	Activity   ActivityLevel `json:"activity"`
	Engagement float64       `json:"engagement"`
}

// Payload is the structured key-value rendering of a result. Timestamp stays
// nil until the Finish stage stamps it.
type Payload struct {
	ClientID      string        `json:"client_id"`
	Name          string        `json:"name"`
	Sector        string        `json:"sector"`
	Category      Category      `json:"category"`
	Campaign      CampaignBlock `json:"campaign"`
	SocialProfile SocialProfile `json:"social_profile"`
	Timestamp     *time.Time    `json:"timestamp"`
}

// RenderedResult is the terminal output of a successful run.
type RenderedResult struct {
	ClientID   string            `json:"client_id"`
	ClientName string            `json:"client_name"`
	Category   Category          `json:"category"`
	Artifact   Artifact          `json:"artifact"`
	Signals    EnrichmentSignals `json:"signals"`
	Message    string            `json:"message"`
	HTML       string            `json:"html"`
	Payload    Payload           `json:"payload"`
	Metrics    Metrics           `json:"metrics"`
}
