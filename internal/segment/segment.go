// Package segment assigns a client to one of the four campaign categories.
package segment

import "crmagent/internal/campaign"

const (
	premiumSpendFloor     = 500
	premiumEngagementMin  = 0.08
	conservativeSpendLow  = 200
	conservativeSpendHigh = 500
)

// Classify applies the rules in fixed priority order; the first match wins.
// It is a pure function of spend, risk, activity and engagement ratio.
func Classify(client campaign.ClientRecord, signals campaign.EnrichmentSignals) campaign.Category {
	lowOrMedium := client.Risk == campaign.RiskLow || client.Risk == campaign.RiskMedium

	switch {
	case client.AverageSpend > premiumSpendFloor && lowOrMedium &&
		signals.Activity == campaign.ActivityHigh && signals.EngagementRatio > premiumEngagementMin:
		return campaign.CategoryPremiumHighEngagement
	case client.Risk == campaign.RiskHigh:
		return campaign.CategoryHighRisk
	case client.AverageSpend >= conservativeSpendLow && client.AverageSpend <= conservativeSpendHigh && lowOrMedium &&
		(signals.Activity == campaign.ActivityMedium || signals.Activity == campaign.ActivityLow):
		return campaign.CategoryMediumConservative
	default:
		return campaign.CategoryBasicGrowthPotential
	}
}
