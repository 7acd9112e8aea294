package security

import (
	"strings"
	"testing"
)

func TestSanitizer_Text(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Jane Doe", "Jane Doe"},
		{"タグを除去する", "<b>Jane</b> <i>Doe</i>", "Jane Doe"},
		{"scriptは中身ごと除去する", `Hi<script>alert("x")</script>`, "Hi"},
		{"アンパサンドを保持する", "Johnson & Johnson", "Johnson & Johnson"},
		{"前後の空白を除去する", "  Gopher  ", "Gopher"},
		{"空文字", "", ""},
		{"属性付きのイベントハンドラを除去する", `<img src=x onerror=alert(1)>bio`, "bio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizer_HTML_KeepsFormatting(t *testing.T) {
	s := NewSanitizer()

	got := s.HTML("<p>Build <strong>APIs</strong></p><ul><li>Go</li></ul>")
	for _, want := range []string{"<p>", "<strong>APIs</strong>", "<ul><li>Go</li></ul>"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML() = %q, want it to contain %q", got, want)
		}
	}
}

func TestSanitizer_HTML_RemovesDangerousContent(t *testing.T) {
	s := NewSanitizer()

	inputs := []string{
		`<script>alert(1)</script>`,
		`<iframe src="https://evil.example.com"></iframe>`,
		`<p onclick="alert(1)">x</p>`,
		`<a href="javascript:alert(1)">x</a>`,
		`<style>body{display:none}</style>`,
	}

	for _, in := range inputs {
		got := s.HTML(in)
		lower := strings.ToLower(got)
		for _, bad := range []string{"<script", "<iframe", "onclick", "javascript:", "<style"} {
			if strings.Contains(lower, bad) {
				t.Errorf("HTML(%q) = %q, contains %q", in, got, bad)
			}
		}
	}
}

func TestSanitizer_HTML_LinksGetRelAndTarget(t *testing.T) {
	s := NewSanitizer()

	got := s.HTML(`<a href="https://jobs.example.com/apply">Apply</a>`)
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("expected target=_blank, got %q", got)
	}
	if !strings.Contains(got, "nofollow") || !strings.Contains(got, "noreferrer") {
		t.Errorf("expected rel nofollow noreferrer, got %q", got)
	}
}

func TestSanitizer_HTML_Idempotent(t *testing.T) {
	s := NewSanitizer()

	in := `<p>Role <a href="https://example.com">details</a><script>x</script></p>`
	once := s.HTML(in)
	if twice := s.HTML(once); twice != once {
		t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}
