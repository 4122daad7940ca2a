package service

import "testing"

func TestClampToZero(t *testing.T) {
	tests := []struct {
		name    string
		balance int
		amount  int
		want    int
	}{
		{"credit untouched", 10, 5, 5},
		{"debit within balance", 10, -7, -7},
		{"debit to exactly zero", 10, -10, -10},
		{"debit beyond balance clamped", 3, -10, -3},
		{"debit from empty balance", 0, -10, 0},
		{"zero amount", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToZero(tt.balance, tt.amount)
			if got != tt.want {
				t.Errorf("ClampToZero(%d, %d) = %d, want %d", tt.balance, tt.amount, got, tt.want)
			}
		})
	}
}

func TestDisputeReputationPenalty(t *testing.T) {
	tests := []struct {
		reputation int
		want       int
	}{
		{0, 5},
		{1, 7},
		{4, 9},
		{20, 14}, // ceil(5 + 2*4.472) = ceil(13.944)
		{100, 25},
	}

	for _, tt := range tests {
		got := DisputeReputationPenalty(tt.reputation)
		if got != tt.want {
			t.Errorf("DisputeReputationPenalty(%d) = %d, want %d", tt.reputation, got, tt.want)
		}
	}
}

func TestApplyReputationDelta(t *testing.T) {
	if got := ApplyReputationDelta(10, 2); got != 12 {
		t.Errorf("Expected 12, got %d", got)
	}
	if got := ApplyReputationDelta(10, -4); got != 6 {
		t.Errorf("Expected 6, got %d", got)
	}
	if got := ApplyReputationDelta(3, -10); got != 0 {
		t.Errorf("Reputation should floor at zero, got %d", got)
	}
}

func TestProficiencyScore(t *testing.T) {
	if got := ProficiencyScore(0, 0, 0); got != 0 {
		t.Errorf("Empty counters should score 0, got %d", got)
	}
	if got := ProficiencyScore(4, 1, 0); got != 11 {
		t.Errorf("Expected 11, got %d", got)
	}
	if got := ProficiencyScore(1, 0, 5); got != 0 {
		t.Errorf("Score should floor at zero, got %d", got)
	}
	if got := ProficiencyScore(2, 3, 1); got != 10 {
		t.Errorf("Expected 10, got %d", got)
	}
}
