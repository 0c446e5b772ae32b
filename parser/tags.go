package parser

import (
	"html"
	"regexp"
	"strings"
	"sync"
)

var tagPatterns sync.Map // tag name -> *regexp.Regexp

// tagPattern matches either a CDATA body or a plain text body of the first
// occurrence of tag. Group 1 holds CDATA content, group 2 plain content.
func tagPattern(tag string) *regexp.Regexp {
	if re, ok := tagPatterns.Load(tag); ok {
		return re.(*regexp.Regexp)
	}
	name := regexp.QuoteMeta(tag)
	re := regexp.MustCompile(
		`(?s)<` + name + `(?:\s[^>]*)?>\s*<!\[CDATA\[(.*?)\]\]>\s*</` + name + `>` +
			`|<` + name + `(?:\s[^>]*)?>([^<]*)</` + name + `>`,
	)
	actual, _ := tagPatterns.LoadOrStore(tag, re)
	return actual.(*regexp.Regexp)
}

// tagBody returns the raw body of tag. CDATA content is returned as is,
// plain content has its XML entities decoded.
func tagBody(block, tag string) string {
	m := tagPattern(tag).FindStringSubmatchIndex(block)
	if m == nil {
		return ""
	}
	if m[2] >= 0 {
		return block[m[2]:m[3]]
	}
	if m[4] >= 0 {
		return html.UnescapeString(block[m[4]:m[5]])
	}
	return ""
}

// tagText returns a strategy reading the trimmed body of tag
func tagText(tag string) func(block string) string {
	return func(block string) string {
		return strings.TrimSpace(tagBody(block, tag))
	}
}

// attrPattern matches the url attribute of the first element whose name
// matches element.
func attrPattern(element string) *regexp.Regexp {
	return regexp.MustCompile(`<(?:` + element + `)\s[^>]*?\burl\s*=\s*["']([^"']+)["']`)
}

func attrValue(re *regexp.Regexp) func(block string) string {
	return func(block string) string {
		m := re.FindStringSubmatch(block)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
}
