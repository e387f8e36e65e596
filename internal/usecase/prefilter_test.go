package usecase

import "testing"

func TestMatchesSaleKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"hebrew discount posting", "מבצע 50% הנחה", true},
		{"hebrew deal word only", "דיל מטורף בחנות", true},
		{"english sale", "Huge SALE this weekend", true},
		{"percent off", "Everything 30% off today", true},
		{"shekel price", "רק 99₪ לזמן מוגבל", true},
		{"plain chatter", "nice weather today in the city", false},
		{"empty content", "", false},
		{"whitespace only", "   \n\t ", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MatchesSaleKeywords(tc.raw); got != tc.want {
				t.Fatalf("MatchesSaleKeywords(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
