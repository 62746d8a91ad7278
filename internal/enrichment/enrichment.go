// Package enrichment simulates the social profile signals for a client.
//
// Values are random within sector and channel derived bounds. The random
// source is injected so callers can substitute a fixed sequence.
package enrichment

import (
	"strings"

	"crmagent/internal/campaign"
	"crmagent/internal/random"
)

const interestsPerClient = 3

var interestsBySector = map[string][]string{
	"retail":    {"fashion", "trends", "deals", "shopping", "style"},
	"tech":      {"technology", "innovation", "gadgets", "startups", "apps"},
	"health":    {"wellness", "fitness", "nutrition", "mental health", "exercise"},
	"education": {"learning", "courses", "books", "professional development", "skills"},
	"food":      {"food", "recipes", "restaurants", "cooking", "flavors"},
}

var sectorAliases = map[string]string{
	"salud":       "health",
	"educación":   "education",
	"educacion":   "education",
	"gastronomía": "food",
	"gastronomia": "food",
	"tecnología":  "tech",
	"tecnologia":  "tech",
}

var defaultInterests = []string{"general", "interest", "content"}

var tonesByChannel = map[string][]string{
	"instagram": {"visual", "inspirational", "aesthetic", "casual"},
	"facebook":  {"community", "informative", "conversational"},
	"twitter":   {"direct", "current", "opinion", "brief"},
	"linkedin":  {"professional", "corporate", "networking"},
}

var defaultTones = []string{"general"}

type span struct{ lo, hi float64 }

var engagementByActivity = map[campaign.ActivityLevel]span{
	campaign.ActivityHigh:   {0.08, 0.15},
	campaign.ActivityMedium: {0.04, 0.08},
	campaign.ActivityLow:    {0.01, 0.04},
}

var frequencyByActivity = map[campaign.ActivityLevel][]string{
	campaign.ActivityHigh:   {"daily", "2-3 times per week"},
	campaign.ActivityMedium: {"weekly", "twice per week"},
	campaign.ActivityLow:    {"biweekly", "monthly"},
}

// Generator produces EnrichmentSignals.
type Generator struct {
	src random.Source
}

// New returns a Generator drawing from src, or the process source when src is nil.
func New(src random.Source) *Generator {
	if src == nil {
		src = random.Default()
	}
	return &Generator{src: src}
}

// Generate builds the signals for client.
func (g *Generator) Generate(client campaign.ClientRecord) campaign.EnrichmentSignals {
	activity := ActivityForSpend(client.AverageSpend)
	lo, hi := EngagementRange(activity)
	return campaign.EnrichmentSignals{
		Interests:        random.Sample(g.src, InterestsFor(client.Sector), interestsPerClient),
		Tone:             random.Choice(g.src, TonesFor(client.SocialChannel)),
		Activity:         activity,
		EngagementRatio:  random.Round3(random.Uniform(g.src, lo, hi)),
		PostingFrequency: random.Choice(g.src, frequencyByActivity[activity]),
	}
}

// ActivityForSpend uses average spend as the engagement proxy.
func ActivityForSpend(spend float64) campaign.ActivityLevel {
	switch {
	case spend > 500:
		return campaign.ActivityHigh
	case spend > 200:
		return campaign.ActivityMedium
	default:
		return campaign.ActivityLow
	}
}

// InterestsFor returns the interest pool for a sector.
func InterestsFor(sector string) []string {
	key := strings.ToLower(strings.TrimSpace(sector))
	if alias, ok := sectorAliases[key]; ok {
		key = alias
	}
	if pool, ok := interestsBySector[key]; ok {
		return pool
	}
	return defaultInterests
}

// TonesFor returns the tone pool for a social channel.
func TonesFor(channel string) []string {
	if pool, ok := tonesByChannel[strings.ToLower(strings.TrimSpace(channel))]; ok {
		return pool
	}
	return defaultTones
}

// EngagementRange returns the inclusive engagement bounds for an activity level.
func EngagementRange(activity campaign.ActivityLevel) (float64, float64) {
	s := engagementByActivity[activity]
	return s.lo, s.hi
}
