package answer

import "testing"

func TestStripEcho(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		topic  string
		want   string
	}{
		{"exact", "Germany. Context first.", "Germany", "Context first."},
		{"case and quotes", "«наполеон» это торт", "Наполеон", "это торт"},
		{"spacing", "How  to   relocate:\nStart early.", "how to relocate", "Start early."},
		{"repeated", "Rome? Rome! Ancient city.", "rome", "Ancient city."},
		{"word boundary", "Romeo and Juliet", "rome", "Romeo and Juliet"},
		{"not at start", "Context. Germany is large.", "Germany", "Context. Germany is large."},
		{"whole answer", "Bali!", "bali", ""},
		{"short topic", "Да, конечно.", "д", "Да, конечно."},
		{"blank topic", "Anything", "  ", "Anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEcho(tt.answer, tt.topic); got != tt.want {
				t.Errorf("StripEcho(%q, %q) = %q, want %q", tt.answer, tt.topic, got, tt.want)
			}
		})
	}
}

func TestStripEchoKeepsLabels(t *testing.T) {
	keep := []string{"Контекст и вводные", "Context and background"}
	tests := []struct {
		name   string
		answer string
		topic  string
		want   string
	}{
		{"topic is label head", "Контекст и вводные. Тема важна.", "Контекст", "Контекст и вводные. Тема важна."},
		{"topic is whole label", "Context and background. Start here.", "context and background", "Context and background. Start here."},
		{"echo before label", "Context? Context and background. Start here.", "Context", "Context and background. Start here."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEcho(tt.answer, tt.topic, keep...); got != tt.want {
				t.Errorf("StripEcho(%q, %q) = %q, want %q", tt.answer, tt.topic, got, tt.want)
			}
		})
	}
}
