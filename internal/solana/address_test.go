package solana

import "testing"

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"wrapped SOL mint", "So11111111111111111111111111111111111111112", true},
		{"USDC mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", true},
		{"ticker symbol", "WIF", false},
		{"empty", "", false},
		{"invalid base58 chars", "0OIl+/=", false},
		{"too short", "abc123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.input); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsOnCurve_RejectsNonAddresses(t *testing.T) {
	if IsOnCurve("not-an-address") {
		t.Error("Non-base58 input should not be on curve")
	}
	if IsOnCurve("") {
		t.Error("Empty input should not be on curve")
	}
}

func TestIsOnCurve_ImpliesValidAddress(t *testing.T) {
	candidates := []string{
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"WIF",
		"",
	}
	for _, c := range candidates {
		if IsOnCurve(c) && !IsValidAddress(c) {
			t.Errorf("IsOnCurve(%q) is true but IsValidAddress is false", c)
		}
	}
}
