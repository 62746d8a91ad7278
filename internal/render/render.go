package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"crmagent/internal/campaign"
	"crmagent/internal/random"
)

//go:embed campaign.html.tmpl
var campaignTemplate string

var page = template.Must(template.New("campaign").Parse(campaignTemplate))

type span struct{ lo, hi float64 }

var clickThroughRanges = map[campaign.Category]span{
	campaign.CategoryPremiumHighEngagement: {0.12, 0.18},
	campaign.CategoryMediumConservative:    {0.06, 0.10},
	campaign.CategoryBasicGrowthPotential:  {0.03, 0.06},
	campaign.CategoryHighRisk:              {0.02, 0.05},
}

var openRateRanges = map[campaign.Category]span{
	campaign.CategoryPremiumHighEngagement: {0.35, 0.50},
	campaign.CategoryMediumConservative:    {0.25, 0.35},
	campaign.CategoryBasicGrowthPotential:  {0.15, 0.25},
	campaign.CategoryHighRisk:              {0.10, 0.20},
}

// Input gathers everything the renderer needs for one client.
type Input struct {
	Client   campaign.ClientRecord
	Category campaign.Category
	Artifact campaign.Artifact
	Signals  campaign.EnrichmentSignals
}

// Renderer builds RenderedResults.
type Renderer struct {
	src random.Source
}

// New returns a Renderer drawing metrics from src, or the process source when src is nil.
func New(src random.Source) *Renderer {
	if src == nil {
		src = random.Default()
	}
	return &Renderer{src: src}
}

// Render produces the full result. The payload timestamp is left nil.
func (r *Renderer) Render(in Input) (*campaign.RenderedResult, error) {
	message := Message(in.Artifact.BaseMessage, in.Client, in.Signals)
	html, err := HTML(in.Client, in.Artifact, message)
	if err != nil {
		return nil, err
	}
	return &campaign.RenderedResult{
		ClientID:   in.Client.ID,
		ClientName: in.Client.Name,
		Category:   in.Category,
		Artifact:   in.Artifact,
		Signals:    in.Signals,
		Message:    message,
		HTML:       html,
		Payload:    BuildPayload(in),
		Metrics:    SimulateMetrics(r.src, in.Category),
	}, nil
}

// Message personalizes the base copy with the client's name and top interests.
func Message(base string, client campaign.ClientRecord, signals campaign.EnrichmentSignals) string {
	top := signals.Interests
	if len(top) > 2 {
		top = top[:2]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", client.Name)
	b.WriteString(base)
	if len(top) > 0 {
		fmt.Fprintf(&b, "\n\nBased on your interest in %s, we think this campaign is perfect for you.", strings.Join(top, ", "))
	}
	return b.String()
}

type pageData struct {
	Artifact campaign.Artifact
	Message  string
	ClientID string
}

// HTML renders the campaign document. Client-supplied text is escaped.
func HTML(client campaign.ClientRecord, artifact campaign.Artifact, message string) (string, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData{Artifact: artifact, Message: message, ClientID: client.ID}); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildPayload assembles the structured representation.
func BuildPayload(in Input) campaign.Payload {
	return campaign.Payload{
		ClientID: in.Client.ID,
		Name:     in.Client.Name,
		Sector:   in.Client.Sector,
		Category: in.Category,
		Campaign: campaign.CampaignBlock{
			ID:       in.Artifact.ID,
			Name:     in.Artifact.Name,
			Template: in.Artifact.Template,
			CTA:      in.Artifact.CTA,
			Channel:  in.Artifact.Channel,
		},
		SocialProfile: campaign.SocialProfile{
			Channel:    in.Client.SocialChannel,
			Interests:  append([]string(nil), in.Signals.Interests...),
			Tone:       in.Signals.Tone,
			Activity:   in.Signals.Activity,
			Engagement: in.Signals.EngagementRatio,
		},
	}
}

// SimulateMetrics draws click-through and open rate from the category's ranges.
func SimulateMetrics(src random.Source, category campaign.Category) campaign.Metrics {
	ctrLo, ctrHi, openLo, openHi := MetricRanges(category)
	return campaign.Metrics{
		ClickThrough: random.Round3(random.Uniform(src, ctrLo, ctrHi)),
		OpenRate:     random.Round3(random.Uniform(src, openLo, openHi)),
	}
}

// MetricRanges returns the bounds SimulateMetrics draws from. Unknown
// categories use the basic growth ranges.
func MetricRanges(category campaign.Category) (ctrLo, ctrHi, openLo, openHi float64) {
	ctr, ok := clickThroughRanges[category]
	if !ok {
		ctr = clickThroughRanges[campaign.CategoryBasicGrowthPotential]
	}
	open, ok := openRateRanges[category]
	if !ok {
		open = openRateRanges[campaign.CategoryBasicGrowthPotential]
	}
	return ctr.lo, ctr.hi, open.lo, open.hi
}
