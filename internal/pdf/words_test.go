package pdf

import "testing"

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "Rupees Zero Only"},
		{1, "Rupees One Only"},
		{21, "Rupees Twenty One Only"},
		{105, "Rupees One Hundred Five Only"},
		{1250, "Rupees One Thousand Two Hundred Fifty Only"},
		{100000, "Rupees One Lakh Only"},
		{2550000, "Rupees Twenty Five Lakh Fifty Thousand Only"},
		{10000000, "Rupees One Crore Only"},
		{12345678, "Rupees One Crore Twenty Three Lakh Forty Five Thousand Six Hundred Seventy Eight Only"},
		{99.50, "Rupees Ninety Nine and Fifty Paise Only"},
		{0.25, "Rupees Zero and Twenty Five Paise Only"},
	}
	for _, tc := range cases {
		if got := AmountInWords(tc.amount); got != tc.want {
			t.Errorf("AmountInWords(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestAmountInWordsRoundsPaise(t *testing.T) {
	// 10.999 rounds to 11.00, not 10 rupees and 100 paise.
	if got := AmountInWords(10.999); got != "Rupees Eleven Only" {
		t.Errorf("AmountInWords(10.999) = %q", got)
	}
}

func TestAmountInWordsNegativeClamped(t *testing.T) {
	if got := AmountInWords(-5); got != "Rupees Zero Only" {
		t.Errorf("AmountInWords(-5) = %q", got)
	}
}
