// Package render turns a StructuredAnswer into markdown and derives the document
// structure of markdown text.
//
// Render is pure: the same answer always yields the same bytes. Headings found inside
// section bodies are demoted below level 2, so an answer with N sections renders with
// exactly N level-2 headers.
package render

import (
	"regexp"
	"strings"

	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Rendered is the markdown form of an answer and its analyzed structure.
type Rendered struct {
	Markdown  string
	Structure domain.DocumentStructure
}

// Render converts answer to markdown.
func Render(answer domain.StructuredAnswer) Rendered {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(singleLine(answer.Title))
	b.WriteString("\n")

	if summary := strings.TrimSpace(answer.Summary); summary != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(summary, "\n") {
			b.WriteString(strings.TrimRight("> "+line, " "))
			b.WriteString("\n")
		}
	}

	for _, section := range answer.Sections {
		b.WriteString("\n## ")
		b.WriteString(singleLine(section.Heading))
		b.WriteString("\n")

		body, _ := RepairFences(strings.TrimSpace(section.Body))
		if body = strings.TrimSpace(demoteHeadings(body)); body != "" {
			b.WriteString("\n")
			b.WriteString(body)
			b.WriteString("\n")
		}

		for _, block := range section.CodeBlocks {
			b.WriteString("\n")
			writeCodeBlock(&b, block)
		}
	}

	if refs := nonEmpty(answer.References); len(refs) > 0 {
		b.WriteString("\n**References**\n\n")
		for _, ref := range refs {
			b.WriteString("- ")
			b.WriteString(singleLine(ref))
			b.WriteString("\n")
		}
	}

	md := b.String()
	return Rendered{Markdown: md, Structure: Analyze(md)}
}

func writeCodeBlock(b *strings.Builder, block domain.CodeBlock) {
	code := strings.TrimRight(block.Code, "\n")
	fence := fenceFor(code)

	b.WriteString(fence)
	b.WriteString(strings.TrimSpace(block.Language))
	b.WriteString("\n")
	b.WriteString(code)
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString("\n")

	if caption := singleLine(block.Caption); caption != "" {
		b.WriteString("*")
		b.WriteString(caption)
		b.WriteString("*\n")
	}
}

// fenceFor returns a backtick fence longer than any backtick run inside code.
func fenceFor(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

// demoteHeadings pushes every ATX heading outside code fences down two levels,
// to at least level 3 and at most level 6.
func demoteHeadings(body string) string {
	lines := strings.Split(body, "\n")
	var fence fenceState
	for i, line := range lines {
		if fence.consume(line) {
			continue
		}
		level, text, ok := parseHeading(line)
		if !ok {
			continue
		}
		level += 2
		if level > 6 {
			level = 6
		}
		lines[i] = strings.Repeat("#", level) + " " + text
	}
	return strings.Join(lines, "\n")
}

var headingMarkerRe = regexp.MustCompile(`^#{1,6}[ \t]+`)

// singleLine collapses s onto one line and drops a leading ATX marker such as "## ".
// Text that is nothing but hashes is kept, so a heading never renders empty.
func singleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if stripped := headingMarkerRe.ReplaceAllString(s, ""); stripped != "" {
		return stripped
	}
	return s
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
