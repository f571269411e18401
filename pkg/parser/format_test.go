package parser

import (
	"strings"
	"testing"
)

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantKind FormatKind
		want     Header
	}{
		{
			name:     "bracketed",
			line:     "[01/02/2023, 10:15:00 AM] Bob: hello",
			wantOK:   true,
			wantKind: KindBracketed,
			want:     Header{Date: "01/02/2023", Time: "10:15:00 AM", Sender: "Bob", Body: "hello"},
		},
		{
			name:     "dash",
			line:     "01/02/2023, 10:15 AM - Bob: hello",
			wantOK:   true,
			wantKind: KindDash,
			want:     Header{Date: "01/02/2023", Time: "10:15 AM", Sender: "Bob", Body: "hello"},
		},
		{
			name:     "dash 24 hour dotted date",
			line:     "15.01.24, 21:04 - Alice Smith: see you",
			wantOK:   true,
			wantKind: KindDash,
			want:     Header{Date: "15.01.24", Time: "21:04", Sender: "Alice Smith", Body: "see you"},
		},
		{
			name:     "lowercase marker",
			line:     "[1/2/23, 9:05:00 pm] Bob: hi",
			wantOK:   true,
			wantKind: KindBracketed,
			want:     Header{Date: "1/2/23", Time: "9:05:00 pm", Sender: "Bob", Body: "hi"},
		},
		{
			name:     "empty body",
			line:     "01/02/2023, 10:15 - Bob:",
			wantOK:   true,
			wantKind: KindDash,
			want:     Header{Date: "01/02/2023", Time: "10:15", Sender: "Bob", Body: ""},
		},
		{
			name:     "colon in body stays in body",
			line:     "01/02/2023, 10:15 - Bob: meet at 10:30: bring snacks",
			wantOK:   true,
			wantKind: KindDash,
			want:     Header{Date: "01/02/2023", Time: "10:15", Sender: "Bob", Body: "meet at 10:30: bring snacks"},
		},
		{
			name:   "system line without sender",
			line:   "01/02/2023, 10:15 - Messages and calls are end-to-end encrypted.",
			wantOK: false,
		},
		{
			name:   "plain text",
			line:   "just a continuation",
			wantOK: false,
		},
		{
			name:   "empty",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, f, ok := m.Match(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if f.Kind != tt.wantKind {
				t.Errorf("Match(%q) kind = %s, want %s", tt.line, f.Kind, tt.wantKind)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDefaultFormats_Examples(t *testing.T) {
	for _, f := range DefaultFormats() {
		if len(f.Examples) == 0 {
			t.Errorf("format %s has no examples", f.ID())
		}
		for _, ex := range f.Examples {
			if _, ok := f.Match(ex); !ok {
				t.Errorf("format %s does not match its own example %q", f.ID(), ex)
			}
		}
	}
}

func TestNewFormat(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr string
	}{
		{"valid", `^(?P<date>\S+) (?P<time>\S+) (?P<sender>[^:]+): (?P<body>.*)$`, ""},
		{"empty", "", "pattern is required"},
		{"invalid regex", `(?P<date>[`, "invalid pattern"},
		{"missing body", `^(?P<date>\S+) (?P<time>\S+) (?P<sender>[^:]+):`, `"body"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormat("custom", KindCustom, tt.pattern)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("NewFormat() error = %v", err)
				}
				if f.ID() != "custom" {
					t.Errorf("ID() = %q, want custom", f.ID())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewFormat() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMatcher_Priority(t *testing.T) {
	loose, err := NewFormat("loose", KindCustom, `^(?P<date>\S+) (?P<time>\S+) (?P<sender>[^:]+): (?P<body>.*)$`)
	if err != nil {
		t.Fatal(err)
	}
	strict := DefaultFormats()[0]

	m := NewMatcher(strict, loose)
	_, f, ok := m.Match("[01/02/2023, 10:15:00] Bob: hi")
	if !ok || f != strict {
		t.Errorf("Match() picked %v, want the first matching format", f)
	}
	_, f, ok = m.Match("yesterday noon Bob: hi")
	if !ok || f != loose {
		t.Errorf("Match() picked %v, want loose", f)
	}
	if len(m.Formats()) != 2 {
		t.Errorf("Formats() = %d, want 2", len(m.Formats()))
	}
}
