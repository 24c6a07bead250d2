package render

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	listItemRe  = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\S`)
	tableSepRe  = regexp.MustCompile(`^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(?:\|[ \t]*:?-{3,}:?[ \t]*)+\|?[ \t]*$`)
	fenceOpenRe = regexp.MustCompile("^[ ]{0,3}(`{3,}|~{3,})[ \t]*([^`\\s]*)")
)

// fenceState tracks whether a line scan is inside a fenced code block.
type fenceState struct {
	open   bool
	marker string
	lang   string
}

// consume advances the state by one line and reports whether the line belongs to a
// fence (either a delimiter or fenced content).
func (f *fenceState) consume(line string) bool {
	m := fenceOpenRe.FindStringSubmatch(line)
	if !f.open {
		if m == nil {
			return false
		}
		f.open = true
		f.marker = m[1]
		f.lang = m[2]
		return true
	}
	if m != nil && m[1][0] == f.marker[0] && len(m[1]) >= len(f.marker) && strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), m[1][:1])) == "" {
		f.open = false
		f.marker = ""
		f.lang = ""
	}
	return true
}

func parseHeading(line string) (int, string, bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return 0, "", false
	}
	return len(m[1]), m[2], true
}

// Analyze scans markdown and derives its structure. Content inside code fences is never
// counted as headers, lists or tables.
func Analyze(markdown string) domain.DocumentStructure {
	structure := domain.DocumentStructure{
		Headers:    []domain.Header{},
		Sections:   []domain.SectionSummary{},
		CodeBlocks: []string{},
	}

	lines := strings.Split(markdown, "\n")
	var fence fenceState
	var current *domain.SectionSummary
	inTable := false

	for i, line := range lines {
		wasOpen := fence.open
		if fence.consume(line) {
			if !wasOpen {
				lang := fence.lang
				if lang == "" {
					lang = "text"
				}
				structure.CodeBlocks = append(structure.CodeBlocks, lang)
			} else if current != nil && fence.open {
				current.WordCount += len(strings.Fields(line))
			}
			inTable = false
			continue
		}

		if level, text, ok := parseHeading(line); ok {
			structure.Headers = append(structure.Headers, domain.Header{
				Text:     text,
				Level:    level,
				HasEmoji: hasEmoji(text),
			})
			switch {
			case level <= 2:
				if current != nil {
					structure.Sections = append(structure.Sections, *current)
					current = nil
				}
				if level == 2 {
					current = &domain.SectionSummary{Title: text}
				}
			case current != nil:
				current.HasSubsections = true
			}
			inTable = false
			continue
		}

		if listItemRe.MatchString(line) {
			structure.Lists++
		}

		if !inTable && strings.Contains(line, "|") && i+1 < len(lines) && tableSepRe.MatchString(lines[i+1]) {
			structure.Tables++
			inTable = true
		} else if inTable && !strings.Contains(line, "|") {
			inTable = false
		}

		if current != nil {
			current.WordCount += len(strings.Fields(line))
		}
	}

	if current != nil {
		structure.Sections = append(structure.Sections, *current)
	}
	return structure
}

// HasUnclosedFence reports whether markdown ends inside a fenced code block.
func HasUnclosedFence(markdown string) bool {
	var fence fenceState
	for _, line := range strings.Split(markdown, "\n") {
		fence.consume(line)
	}
	return fence.open
}

// RepairFences closes a code fence left open at the end of markdown. It reports whether
// the text was changed.
func RepairFences(markdown string) (string, bool) {
	var fence fenceState
	for _, line := range strings.Split(markdown, "\n") {
		fence.consume(line)
	}
	if !fence.open {
		return markdown, false
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return markdown + fence.marker + "\n", true
}

func hasEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x2B00 && r <= 0x2BFF:
			return true
		case unicode.Is(unicode.So, r) && r > 0x2000:
			return true
		}
	}
	return false
}
