package ssh

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "wp-content", "'wp-content'"},
		{"spaces", "my theme", "'my theme'"},
		{"single quote", "o'brien", `'o'\''brien'`},
		{"metacharacters", "$(rm -rf /); `id`", "'$(rm -rf /); `id`'"},
		{"empty", "", "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quote(tt.in); got != tt.want {
				t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteHome(t *testing.T) {
	got := QuoteHome("tmp/shop-theme.zip")
	want := `"$HOME"/'tmp/shop-theme.zip'`
	if got != want {
		t.Errorf("QuoteHome = %q, want %q", got, want)
	}
}
