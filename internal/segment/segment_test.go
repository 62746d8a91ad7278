package segment_test

import (
	"testing"

	"crmagent/internal/campaign"
	"crmagent/internal/segment"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		spend      float64
		risk       campaign.RiskLevel
		activity   campaign.ActivityLevel
		engagement float64
		want       campaign.Category
	}{
		{"premium", 800, campaign.RiskLow, campaign.ActivityHigh, 0.12, campaign.CategoryPremiumHighEngagement},
		{"premium medium risk", 501, campaign.RiskMedium, campaign.ActivityHigh, 0.081, campaign.CategoryPremiumHighEngagement},
		{"high risk beats spend", 900, campaign.RiskHigh, campaign.ActivityHigh, 0.15, campaign.CategoryHighRisk},
		{"high risk low spend", 10, campaign.RiskHigh, campaign.ActivityLow, 0.01, campaign.CategoryHighRisk},
		{"conservative", 300, campaign.RiskMedium, campaign.ActivityLow, 0.02, campaign.CategoryMediumConservative},
		{"conservative lower edge", 200, campaign.RiskLow, campaign.ActivityMedium, 0.05, campaign.CategoryMediumConservative},
		{"conservative upper edge", 500, campaign.RiskLow, campaign.ActivityMedium, 0.05, campaign.CategoryMediumConservative},
		{"spend 500 is not premium", 500, campaign.RiskLow, campaign.ActivityHigh, 0.12, campaign.CategoryBasicGrowthPotential},
		{"engagement at floor is not premium", 800, campaign.RiskLow, campaign.ActivityHigh, 0.08, campaign.CategoryBasicGrowthPotential},
		{"basic default", 50, campaign.RiskLow, campaign.ActivityLow, 0.02, campaign.CategoryBasicGrowthPotential},
		{"mid spend high activity", 300, campaign.RiskLow, campaign.ActivityHigh, 0.1, campaign.CategoryBasicGrowthPotential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := campaign.ClientRecord{ID: "C", Name: "n", AverageSpend: tt.spend, Risk: tt.risk}
			signals := campaign.EnrichmentSignals{Activity: tt.activity, EngagementRatio: tt.engagement}
			if got := segment.Classify(client, signals); got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	client := campaign.ClientRecord{ID: "C", Name: "n", AverageSpend: 650, Risk: campaign.RiskMedium}
	signals := campaign.EnrichmentSignals{Activity: campaign.ActivityHigh, EngagementRatio: 0.1, Tone: "visual"}
	first := segment.Classify(client, signals)
	signals.Tone = "casual"
	signals.Interests = []string{"x"}
	for i := 0; i < 10; i++ {
		if got := segment.Classify(client, signals); got != first {
			t.Fatalf("classification changed: %q vs %q", got, first)
		}
	}
}
