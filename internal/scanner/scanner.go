package scanner

import "strings"

// fileScan holds per-line views of one source file. The code view blanks
// comments but keeps string literals, so declaration patterns and quoted
// test names can be matched against it. The count view additionally blanks
// string contents and is the only view delimiter tracking reads. Blanked
// regions become spaces, keeping every column aligned with the raw text.
type fileScan struct {
	raw   []string
	code  []string
	count []string
}

const (
	stCode = iota
	stLineComment
	stBlockComment
	stSingle
	stDouble
	stTemplate
)

func newFileScan(content string) *fileScan {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	raw := strings.Split(content, "\n")

	fs := &fileScan{
		raw:   raw,
		code:  make([]string, len(raw)),
		count: make([]string, len(raw)),
	}

	state := stCode
	for li, line := range raw {
		code := []byte(line)
		count := []byte(line)
		escaped := false

		for i := 0; i < len(line); i++ {
			c := line[i]
			switch state {
			case stCode:
				switch {
				case c == '/' && i+1 < len(line) && line[i+1] == '/':
					for j := i; j < len(line); j++ {
						code[j], count[j] = ' ', ' '
					}
					i = len(line)
				case c == '/' && i+1 < len(line) && line[i+1] == '*':
					code[i], count[i] = ' ', ' '
					state = stBlockComment
				case c == '\'':
					count[i] = ' '
					state = stSingle
				case c == '"':
					count[i] = ' '
					state = stDouble
				case c == '`':
					count[i] = ' '
					state = stTemplate
				}
			case stBlockComment:
				code[i], count[i] = ' ', ' '
				if c == '*' && i+1 < len(line) && line[i+1] == '/' {
					code[i+1], count[i+1] = ' ', ' '
					i++
					state = stCode
				}
			case stSingle, stDouble:
				count[i] = ' '
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case state == stSingle && c == '\'':
					state = stCode
				case state == stDouble && c == '"':
					state = stCode
				}
			case stTemplate:
				count[i] = ' '
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '`':
					state = stCode
				}
			}
		}

		// Line comments end at the newline. Plain string literals cannot
		// span lines either; only block comments and template literals
		// carry over.
		if state == stLineComment || state == stSingle || state == stDouble {
			state = stCode
		}

		fs.code[li] = string(code)
		fs.count[li] = string(count)
	}

	return fs
}

func (fs *fileScan) numLines() int {
	return len(fs.raw)
}

// spanEnd walks lines from a declaration match and returns the 0-indexed
// line where the declaration's block closes, tracking delimiter depth on
// the count view. startCol restricts the first line to the text from the
// match onward. Depth is evaluated at line granularity: a line whose net
// depth returns to zero after a block opened closes the span. A statement
// terminator seen before any block opens closes the span on that line,
// which covers expression-bodied arrow functions. The second return is
// true when no close exists before end of file.
func (fs *fileScan) spanEnd(startIdx, startCol int) (int, bool) {
	depth := 0
	opened := false

	for i := startIdx; i < len(fs.count); i++ {
		text := fs.count[i]
		if i == startIdx {
			if startCol >= len(text) {
				text = ""
			} else {
				text = text[startCol:]
			}
		}

		for j := 0; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			case ';':
				if !opened {
					return i, false
				}
			}
		}

		if opened && depth <= 0 {
			return i, false
		}
	}

	return len(fs.count) - 1, true
}
