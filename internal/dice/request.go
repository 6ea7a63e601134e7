package dice

import "github.com/mrwong99/adventure-engine/pkg/i18n"

// InfluencingFactors names the traits and tags the Rule Adjudicator cited
// when deriving a pool spec, for display in the check request explanation.
type InfluencingFactors struct {
	Traits []string `json:"traits"`
	Tags   []string `json:"tags"`
}

// CheckRequest is the Rule Adjudicator's output offered to the dice
// subsystem: an intention, the factors behind the derived pool, the
// resulting formula, and a localized explanation of why the pool looks the
// way it does.
type CheckRequest struct {
	Intention           string             `json:"intention"`
	InfluencingFactors   InfluencingFactors `json:"influencing_factors"`
	DiceFormula          string             `json:"dice_formula"`
	Instructions         i18n.Pair          `json:"instructions"`
}

// HasAdvantage reports whether the request's formula carries a keep-highest
// bonus pool.
func (r CheckRequest) HasAdvantage() bool {
	return hasSuffix(r.DiceFormula, "kh2")
}

// HasDisadvantage reports whether the request's formula carries a
// keep-lowest penalty pool.
func (r CheckRequest) HasDisadvantage() bool {
	return hasSuffix(r.DiceFormula, "kl2")
}

// DiceCount returns the number of dice the formula calls for: 2 for the
// unmodified "2d6" formula, or the leading digit of a pool formula such as
// "3d6kl2".
func (r CheckRequest) DiceCount() int {
	n := 0
	for _, c := range r.DiceFormula {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 2
	}
	return n
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// DeriveSpec converts bonus/penalty counts (summed by the Rule Adjudicator
// from contributing traits and tags) into a PoolSpec and its CheckRequest
// dice formula. The adjudicator is expected to have already
// resolved any player argument into bonusDice/penaltyDice before calling.
func DeriveSpec(modifier, bonusDice, penaltyDice int) (PoolSpec, string) {
	spec := PoolSpec{Modifier: modifier, BonusDice: bonusDice, PenaltyDice: penaltyDice}
	net := bonusDice - penaltyDice
	return spec, Formula(net)
}
