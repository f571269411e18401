package parser

import "testing"

func TestNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name string
		mode TrimMode
		in   string
		want string
	}{
		{"plain", TrimLeading, "hello", "hello"},
		{"leading whitespace", TrimLeading, "  \thello", "hello"},
		{"trailing kept", TrimLeading, "hello  ", "hello  "},
		{"trailing trimmed", TrimBoth, "  hello  ", "hello"},
		{"carriage return", TrimBoth, "hello\r", "hello"},
		{"byte order mark", TrimLeading, "\ufeff[01/02/2023, 10:15:00] Bob: hi", "[01/02/2023, 10:15:00] Bob: hi"},
		{"left to right mark", TrimLeading, "\u200e[01/02/2023, 10:15:00] Bob: hi", "[01/02/2023, 10:15:00] Bob: hi"},
		{"embedding marks", TrimLeading, "\u202aBob\u202c", "Bob"},
		{"narrow no-break space", TrimLeading, "10:15\u202fAM", "10:15 AM"},
		{"empty", TrimBoth, "", ""},
		{"only whitespace", TrimLeading, "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.mode)
			if got := n.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	inputs := []string{
		"\ufeff  [01/02/2023, 10:15:00\u202fAM] Bob: hi  ",
		"\u200e\u200e  text\r",
		"",
	}
	for _, mode := range []TrimMode{TrimLeading, TrimBoth} {
		n := NewNormalizer(mode)
		for _, in := range inputs {
			once := n.Normalize(in)
			if twice := n.Normalize(once); twice != once {
				t.Errorf("%s: Normalize(Normalize(%q)) = %q, want %q", mode, in, twice, once)
			}
		}
	}
}

func TestParseTrimMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TrimMode
		wantErr bool
	}{
		{"", TrimLeading, false},
		{"leading-only", TrimLeading, false},
		{"both", TrimBoth, false},
		{"none", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTrimMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTrimMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTrimMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
