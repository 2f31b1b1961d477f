package common

import (
	"strings"
	"unicode"
)

// CollapseBlankLines reduces runs of two or more consecutive blank lines
// (lines containing only spaces or tabs count as blank) to a single blank
// line. Line endings are normalized to \n.
func CollapseBlankLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blankRun := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
			// Normalize the kept blank line to empty
			out = append(out, "")
			continue
		}
		blankRun = 0
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// CountWords returns the number of word-boundary tokens in text. A word is a
// maximal run of letters, digits, or underscores.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if !inWord {
				count++
				inWord = true
			}
		} else {
			inWord = false
		}
	}
	return count
}
