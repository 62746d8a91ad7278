// Package catalog maps a category to its campaign artifact.
package catalog

import "crmagent/internal/campaign"

var artifacts = map[campaign.Category]campaign.Artifact{
	campaign.CategoryPremiumHighEngagement: {
		ID:          "CAMP-001",
		Name:        "Premium Exclusivity",
		Template:    "premium_exclusive",
		CTA:         "Access exclusive benefits now",
		Channel:     "email",
		Target:      campaign.CategoryPremiumHighEngagement,
		BaseMessage: "As a premium client, you have exclusive access to our best offers and personalized experiences.",
	},
	campaign.CategoryMediumConservative: {
		ID:          "CAMP-002",
		Name:        "Value and Trust",
		Template:    "value_trust",
		CTA:         "Discover our options",
		Channel:     "email",
		Target:      campaign.CategoryMediumConservative,
		BaseMessage: "We offer great-value options that fit your needs, with the confidence you are looking for.",
	},
	campaign.CategoryBasicGrowthPotential: {
		ID:          "CAMP-003",
		Name:        "Growth and Opportunities",
		Template:    "growth",
		CTA:         "Start growing today",
		Channel:     "sms",
		Target:      campaign.CategoryBasicGrowthPotential,
		BaseMessage: "We have opportunities designed to help you grow. Start with accessible options and scale with your results.",
	},
	campaign.CategoryHighRisk: {
		ID:          "CAMP-004",
		Name:        "Risk Management",
		Template:    "risk_management",
		CTA:         "Review safe options",
		Channel:     "email",
		Target:      campaign.CategoryHighRisk,
		BaseMessage: "We understand your needs. We offer options with appropriate risk management and personalized follow-up.",
	},
}

// Select returns the artifact for category. Unknown categories get the
// basic growth artifact.
func Select(category campaign.Category) campaign.Artifact {
	if artifact, ok := artifacts[category]; ok {
		return artifact
	}
	return artifacts[campaign.CategoryBasicGrowthPotential]
}

// All returns every artifact in category priority order.
func All() []campaign.Artifact {
	out := make([]campaign.Artifact, 0, len(campaign.Categories))
	for _, c := range campaign.Categories {
		out = append(out, artifacts[c])
	}
	return out
}
