// Package importer turns free-form task lists into board tasks and finds
// the tasks a list names for batch deletion.
package importer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Leading markers, stripped in this order.
var markers = []*regexp.Regexp{
	regexp.MustCompile(`^[-*•]\s*`),
	regexp.MustCompile(`^\d+\.\s*`),
	regexp.MustCompile(`^- \[ \]\s*`),
	regexp.MustCompile(`^- \[x\]\s*`),
	regexp.MustCompile(`^- \[X\]\s*`),
}

var (
	brackets     = regexp.MustCompile(`\[([^\]]+)\]`)
	timeEstimate = regexp.MustCompile(`(?i)\s*\(\s*\d+\s*(hours?|hrs?|minutes?|mins?)\s*\)\s*$`)
	trailer      = regexp.MustCompile(`\s*(—|--)\s*.*$`)
)

// ParseTaskContent cleans one line of a pasted list:
//
//	"- [ ] Review PR (30 min)"   -> "Review pr"
//	"2. Call mom — after lunch"  -> "Call mom"
//
// It returns "" when nothing is left.
func ParseTaskContent(line string) string {
	s := line
	for _, re := range markers {
		s = re.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(brackets.ReplaceAllString(s, "$1"))
	s = strings.TrimSpace(timeEstimate.ReplaceAllString(s, ""))
	s = strings.TrimSpace(trailer.ReplaceAllString(s, ""))
	return sentenceCase(s)
}

func sentenceCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ParseTasks parses every non-blank line of text.
func ParseTasks(text string) []string {
	var tasks []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if t := ParseTaskContent(line); t != "" {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func normalize(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}
