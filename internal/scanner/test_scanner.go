package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/internal/types"
)

// testCallPattern recognizes test declarations of the form test('name', ...)
// or it('name', ...). The leading character class rules out identifiers that
// merely end in "test" and method calls like suite.test(...).
var testCallPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_$.])(test|it)\s*\(`)

// TestScanner indexes the test declarations of one test file into spans.
type TestScanner struct {
	log *logging.Logger
}

func NewTestScanner(log *logging.Logger) *TestScanner {
	return &TestScanner{log: log}
}

// Scan returns the test spans of content in declaration order. Declarations
// whose name cannot be read literally are kept under a synthetic placeholder
// so their line range still participates in impact matching.
func (s *TestScanner) Scan(path, content string) []types.Span {
	fs := newFileScan(content)
	var spans []types.Span

	for i := 0; i < fs.numLines(); i++ {
		code := fs.code[i]
		for _, m := range testCallPattern.FindAllStringSubmatchIndex(code, -1) {
			keywordStart, matchEnd := m[2], m[1]

			endIdx, low := fs.spanEnd(i, keywordStart)
			span := types.Span{
				File:          path,
				Kind:          types.SpanKindTest,
				StartLine:     i + 1,
				EndLine:       endIdx + 1,
				LowConfidence: low,
			}

			name, ok := literalName(code[matchEnd:])
			if !ok || name == "" {
				span.Name = fmt.Sprintf("anonymous@L%d", i+1)
				span.Synthetic = true
				s.log.Warn("test name is not a literal, using placeholder", map[string]any{
					"file": path,
					"line": i + 1,
				})
			} else {
				span.Name = name
			}

			if low {
				s.log.Warn("test block never closes, extending span to end of file", map[string]any{
					"file": path,
					"test": span.Name,
					"line": i + 1,
				})
			}

			spans = append(spans, span)
		}
	}

	return spans
}

// literalName reads the first argument of a declaration call when it is a
// plain string literal on the same line. Template literals qualify only
// without interpolation.
func literalName(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", false
	}

	quote := s[0]
	if quote != '\'' && quote != '"' && quote != '`' {
		return "", false
	}

	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == quote {
			name := s[1:i]
			if quote == '`' && strings.Contains(name, "${") {
				return "", false
			}
			return name, true
		}
	}
	return "", false
}
