package capture

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "YES", "yes"},
		{"trim", "  yes  ", "yes"},
		{"punctuation", "Yes!", "yes"},
		{"trailing period", "no.", "no"},
		{"inner whitespace", "yes   please", "yes please"},
		{"tabs and newlines", "\tyes\nplease\t", "yes please"},
		{"mixed case sentence", "Well, YES I think", "well yes i think"},
		{"digits kept", "option 1", "option 1"},
		{"apostrophe dropped", "don't", "dont"},
		{"empty", "", ""},
		{"only punctuation", "?!.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Answer
		matched bool
	}{
		{"plain yes", "yes", AnswerYes, true},
		{"plain no", "no", AnswerNo, true},
		{"uppercase", "YES", AnswerYes, true},
		{"padded", "  no  ", AnswerNo, true},
		{"yes in sentence", "well yes I think so", AnswerYes, true},
		{"no in sentence", "definitely no thanks", AnswerNo, true},
		{"punctuated", "Yes.", AnswerYes, true},
		{"repeated yes", "yes yes", AnswerYes, true},
		{"repeated no", "no no no", AnswerNo, true},
		{"yes wins over no", "yes and no", AnswerYes, true},
		{"nope contains no", "nope", AnswerNo, true},
		{"yeah alone unmatched", "yeah", "", false},
		{"unrelated", "maybe tomorrow", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},

		// substring matching artifacts, kept until boundary matching lands
		{"yesterday contains yes", "yesterday", AnswerYes, true},
		{"sonora contains no", "sonora", AnswerNo, true},
		{"notice contains no", "notice", AnswerNo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := Classify(tt.input)
			if matched != tt.matched {
				t.Errorf("Classify(%q) matched = %v, want %v", tt.input, matched, tt.matched)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsExact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Answer
		exact bool
	}{
		{"bare yes", "yes", AnswerYes, true},
		{"bare no", "no", AnswerNo, true},
		{"capitalized", "Yes", AnswerYes, true},
		{"punctuated", "No.", AnswerNo, true},
		{"padded", "  yes ", AnswerYes, true},
		{"repeated is not exact", "yes yes", "", false},
		{"sentence is not exact", "yes please", "", false},
		{"yeah is not exact", "yeah", "", false},
		{"substring is not exact", "yesterday", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exact := IsExact(tt.input)
			if exact != tt.exact {
				t.Errorf("IsExact(%q) exact = %v, want %v", tt.input, exact, tt.exact)
			}
			if got != tt.want {
				t.Errorf("IsExact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
