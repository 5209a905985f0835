package scanner

import (
	"regexp"
	"strings"

	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// helperPatterns recognize the declaration forms a helper function can take:
// function statements, const-assigned arrow functions and const-assigned
// function expressions.
var helperPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])(?:export\s+)?(?:default\s+)?(?:async\s+)?function(?:\s+|\s*\*\s*)([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`),
	regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)\s*(?::[^=;]*?)?|[A-Za-z_$][A-Za-z0-9_$]*\s*)=>`),
	regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?function\b`),
}

// jsKeywords are identifiers that can never name a helper. A declaration
// pattern capturing one of these is a false match.
var jsKeywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "while": {}, "do": {}, "switch": {},
	"case": {}, "default": {}, "break": {}, "continue": {}, "return": {},
	"function": {}, "class": {}, "interface": {}, "extends": {},
	"implements": {}, "import": {}, "export": {}, "from": {}, "as": {},
	"const": {}, "let": {}, "var": {}, "typeof": {}, "instanceof": {},
	"new": {}, "delete": {}, "void": {}, "this": {}, "super": {},
	"try": {}, "catch": {}, "finally": {}, "throw": {}, "debugger": {},
	"with": {}, "yield": {}, "await": {}, "async": {}, "static": {},
	"public": {}, "private": {}, "protected": {}, "readonly": {},
	"abstract": {}, "enum": {}, "type": {}, "namespace": {}, "module": {},
	"require": {}, "true": {}, "false": {}, "null": {}, "undefined": {},
	"nan": {}, "infinity": {},
}

// HelperScanner indexes the function declarations of one source file into
// spans.
type HelperScanner struct {
	log *logging.Logger
}

func NewHelperScanner(log *logging.Logger) *HelperScanner {
	return &HelperScanner{log: log}
}

// Scan returns the helper spans of content in declaration order.
func (s *HelperScanner) Scan(path, content string) []types.Span {
	fs := newFileScan(content)
	var spans []types.Span

	for i := 0; i < fs.numLines(); i++ {
		code := fs.code[i]
		for _, pattern := range helperPatterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(code, -1) {
				name := code[m[2]:m[3]]
				if _, keyword := jsKeywords[strings.ToLower(name)]; keyword {
					continue
				}

				endIdx, low := fs.spanEnd(i, m[2])
				span := types.Span{
					File:          path,
					Kind:          types.SpanKindHelper,
					Name:          name,
					StartLine:     i + 1,
					EndLine:       endIdx + 1,
					LowConfidence: low,
				}
				if low {
					s.log.Warn("helper block never closes, extending span to end of file", map[string]any{
						"file":   path,
						"helper": name,
						"line":   i + 1,
					})
				}

				spans = append(spans, span)
			}
		}
	}

	return spans
}
