package rules

import "math"

// CheckRequirements reports whether the facts satisfy every requirement
// on the rule. All kinds use meets-or-exceeds semantics. A rule with no
// requirements is always eligible. The missing list carries the
// human-readable description of each unmet requirement.
func CheckRequirements(rule ActivityRule, facts Facts) (bool, []string) {
	if len(rule.Requirements) == 0 {
		return true, nil
	}

	var missing []string
	for _, req := range rule.Requirements {
		meets := false
		switch req.Kind {
		case RequirementMinLevel:
			meets = facts.Level >= req.Value
		case RequirementKYCVerified:
			meets = facts.KYCVerified
		case RequirementMinTransactions:
			meets = facts.TransactionCount >= req.Value
		case RequirementAccountAgeDays:
			meets = facts.AccountAgeDays >= req.Value
		}
		if !meets {
			missing = append(missing, req.Description)
		}
	}

	return len(missing) == 0, missing
}

// ComputeValue computes the final point value for an award. It starts
// from the rule's base points and applies each multiplier condition in
// declared order, truncating toward zero after every step. Conditions
// compose; the engine does not pick a single best tier.
func ComputeValue(rule ActivityRule, facts Facts) int64 {
	points := rule.BasePoints

	for _, cond := range rule.Multipliers {
		var fact float64
		switch cond.Kind {
		case MultiplierStreak:
			fact = float64(facts.Streak)
		case MultiplierVolume:
			fact = facts.Volume
		case MultiplierLevel:
			fact = float64(facts.Level)
		case MultiplierReferralCount:
			fact = float64(facts.ReferralCount)
		default:
			continue
		}

		if fact >= cond.Threshold {
			points = int64(math.Floor(float64(points) * cond.Factor))
		}
	}

	if points < 0 {
		points = 0
	}
	return points
}
