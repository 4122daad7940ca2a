package service

import "math"

// upvoteReputationGain is the reputation a reviewee earns per upvote
const upvoteReputationGain = 2

// ClampToZero applies the ledger's overdraft policy: a debit larger than
// the available balance is truncated so the balance lands on zero instead
// of rejecting the operation. This deliberately breaks strict token
// conservation; the ledger records the truncated amount so the running sum
// stays consistent.
func ClampToZero(balance, amount int) int {
	if amount < 0 && balance+amount < 0 {
		return -balance
	}
	return amount
}

// DisputeReputationPenalty is the reputation cost of losing an arbitrated
// dispute: ceil(5 + 2*sqrt(reputation)). A heuristic, kept as a pure
// function of the current reputation so it can be tuned in isolation.
func DisputeReputationPenalty(reputation int) int {
	return int(math.Ceil(5 + 2*math.Sqrt(float64(reputation))))
}

// ApplyReputationDelta moves a reputation score, flooring at zero
func ApplyReputationDelta(reputation, delta int) int {
	result := reputation + delta
	if result < 0 {
		return 0
	}
	return result
}

// ProficiencyScore derives the per-course proficiency score from review
// outcome counters: defended disputes weigh slightly more than upvotes,
// lost disputes cancel defended ones, and the score never goes negative.
func ProficiencyScore(upvotes, defended, lost int) int {
	score := 2*upvotes + 3*defended - 3*lost
	if score < 0 {
		return 0
	}
	return score
}
