package usecase

import "strings"

// saleLexicon is the bilingual keyword set gating entry into the pipeline.
// Matching is necessary but not sufficient: it only buys a candidate a
// classification attempt, not a confidence judgment.
var saleLexicon = []string{
	// Hebrew discount vocabulary.
	"מבצע",
	"הנחה",
	"חיסול",
	"קופון",
	"דיל",
	"זול",
	"סייל",
	// English.
	"sale",
	"discount",
	"deal",
	"promo",
	"clearance",
	"coupon",
	"% off",
	// Currency / percentage markers.
	"%",
	"₪",
	"$",
}

// MatchesSaleKeywords reports whether raw content looks like a sale posting.
func MatchesSaleKeywords(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	lowered := strings.ToLower(raw)
	for _, keyword := range saleLexicon {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
