// Package security は入力サニタイズとSSRF防止を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はユーザー入力と外部フィード由来のテキストを無害化する。
// bluemondayのポリシーはスレッドセーフなため、1つのインスタンスを共有してよい。
type Sanitizer struct {
	text *bluemonday.Policy
	rich *bluemonday.Policy
}

// NewSanitizer はSanitizerを生成する。
//
// Textはすべてのタグを除去したプレーンテキストを返す（求人タイトルや会社名など）。
// HTMLは求人説明向けの限定的なタグのみを通過させる。
func NewSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "b", "i",
		"h3", "h4", "blockquote",
	)
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowURLSchemes("https", "http", "mailto")
	rich.AllowRelativeURLs(false)
	rich.RequireNoFollowOnLinks(true)
	rich.RequireNoReferrerOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		text: bluemonday.StrictPolicy(),
		rich: rich,
	}
}

// Text はタグを除去し、前後の空白を削ったプレーンテキストを返す。
// bluemondayがエスケープした文字実体はJSONで返すため元に戻す。
func (s *Sanitizer) Text(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(raw)))
}

// HTML は求人説明として安全なHTMLを返す。
func (s *Sanitizer) HTML(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}
