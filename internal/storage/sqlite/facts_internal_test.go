package sqlite

import "testing"

func TestEscapeFTSQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plain words", "treasury flows", `"treasury" "flows"`},
		{"operators become literals", "BONK AND NOT moon", `"BONK" "AND" "NOT" "moon"`},
		{"embedded quotes doubled", `said "risk-on" today`, `"said" """risk-on""" "today"`},
		{"punctuation kept inside quotes", "(Q3) token*", `"(Q3)" "token*"`},
		{"empty", "", `""`},
		{"whitespace only", "   ", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeFTSQuery(tt.query); got != tt.want {
				t.Errorf("escapeFTSQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
