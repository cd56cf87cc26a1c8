package youtube

import "testing"

func TestParseRottenTomatoesTitle(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantYear  int
		wantOK    bool
	}{
		{
			name:      "trailer with year",
			input:     "Dune Official Trailer #1 (2021)",
			wantTitle: "Dune",
			wantYear:  2021,
			wantOK:    true,
		},
		{
			name:      "trailer without year",
			input:     "The Batman Trailer #2",
			wantTitle: "The Batman",
			wantOK:    true,
		},
		{
			name:      "multi word title",
			input:     "Dune Part Two Official Trailer #1 (2024)",
			wantTitle: "Dune Part Two",
			wantYear:  2024,
			wantOK:    true,
		},
		{
			name:  "teaser is not a trailer",
			input: "Dune Official Teaser (2021)",
		},
		{
			name:  "unnumbered trailer",
			input: "Dune Official Trailer (2021)",
		},
		{
			name:  "empty title",
			input: "",
		},
		{
			name:  "whitespace only",
			input: "   ",
		},
		{
			name:  "no movie name before marker",
			input: "Trailer #1 (2021)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRottenTomatoesTitle(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRottenTomatoesTitle(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Year != tt.wantYear {
				t.Errorf("year = %d, want %d", got.Year, tt.wantYear)
			}
		})
	}
}

func TestParseMubiTitle(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantOK    bool
	}{
		{
			name:      "official trailer with channel suffix",
			input:     "Dune | Official Trailer #1 | Mubi",
			wantTitle: "Dune",
			wantOK:    true,
		},
		{
			name:      "official trailer without number",
			input:     "Memoria | Official Trailer | MUBI",
			wantTitle: "Memoria",
			wantOK:    true,
		},
		{
			name:  "teaser rejected",
			input: "Memoria | Official Teaser | MUBI",
		},
		{
			name:  "coming soon rejected",
			input: "Coming Soon to MUBI | Official Trailer",
		},
		{
			name:  "no official trailer marker",
			input: "Memoria | Clip | MUBI",
		},
		{
			name:  "empty title",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMubiTitle(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseMubiTitle(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Year != 0 {
				t.Errorf("year = %d, want 0", got.Year)
			}
		})
	}
}
