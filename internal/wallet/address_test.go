package wallet

import "testing"

func TestIsValidAddress(t *testing.T) {
	valid := []string{
		"0x0000000000000000000000000000000000000001",
		"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		"0xab5801a7d398351b8be11c439e05c5b3259aec9b",
	}
	for _, s := range valid {
		if !IsValidAddress(s) {
			t.Fatalf("expected valid: %s", s)
		}
	}

	invalid := []string{
		"",
		"0x",
		"0x123",
		"ab5801a7d398351b8be11c439e05c5b3259aec9b",
		"0xZZ5801a7d398351b8be11c439e05c5b3259aec9b",
		"0xab5801a7d398351b8be11c439e05c5b3259aec9b00",
	}
	for _, s := range invalid {
		if IsValidAddress(s) {
			t.Fatalf("expected invalid: %s", s)
		}
	}
}

func TestNormalize(t *testing.T) {
	lower := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	upper := "0xAB5801A7D398351B8BE11C439E05C5B3259AEC9B"
	if Normalize(lower) != Normalize(upper) {
		t.Fatalf("case variants must normalize identically")
	}
}
