// Package prompt builds the message list sent upstream: a system prompt rendered from a
// per-response-type template, the conversation history trimmed to a token budget, and
// the task.
package prompt

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/tiktoken-go/tokenizer"

	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/generation"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Input is everything a prompt depends on.
type Input struct {
	ResponseType domain.ResponseType
	Task         string
	Audience     string
	Tone         string
	Context      domain.DeclaredContext
	History      []domain.Turn
}

// Output is the built prompt.
type Output struct {
	Messages []generation.Message
	// DroppedTurns counts history turns removed to fit the token budget.
	DroppedTurns int
	// HistoryTokens is the token count of the history that was kept.
	HistoryTokens int
}

// Builder renders prompts. It is safe for concurrent use.
type Builder struct {
	templates     *template.Template
	codec         tokenizer.Codec
	historyBudget int
}

type templateData struct {
	Audience string
	Tone     string
	Subject  string
	Topic    string
	Level    string
}

// NewBuilder parses the embedded templates, then any *.tmpl files in overrideDir, which
// replace embedded templates of the same name. historyBudget is the maximum number of
// cl100k tokens of history to send; zero or less drops all history.
func NewBuilder(overrideDir string, historyBudget int) (*Builder, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt templates: %v", generation.ErrInvalidConfig, err)
	}

	if overrideDir != "" {
		info, err := os.Stat(overrideDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: prompt template path %q is not a directory", generation.ErrInvalidConfig, overrideDir)
		}
		matches, err := filepath.Glob(filepath.Join(overrideDir, "*.tmpl"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
		}
		if len(matches) > 0 {
			if tmpl, err = tmpl.ParseFiles(matches...); err != nil {
				return nil, fmt.Errorf("%w: failed to parse prompt overrides: %v", generation.ErrInvalidConfig, err)
			}
		}
	}

	for _, rt := range domain.ResponseTypes {
		if tmpl.Lookup(templateName(rt)) == nil {
			return nil, fmt.Errorf("%w: no prompt template for %s", generation.ErrInvalidConfig, rt)
		}
	}

	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	return &Builder{templates: tmpl, codec: codec, historyBudget: historyBudget}, nil
}

// Build renders the system prompt for in.ResponseType and assembles the messages.
func (b *Builder) Build(in Input) (Output, error) {
	if strings.TrimSpace(in.Task) == "" {
		return Output{}, fmt.Errorf("%w: task is empty", generation.ErrInvalidInput)
	}

	var system strings.Builder
	err := b.templates.ExecuteTemplate(&system, templateName(in.ResponseType), templateData{
		Audience: strings.TrimSpace(in.Audience),
		Tone:     strings.TrimSpace(in.Tone),
		Subject:  strings.TrimSpace(in.Context.Subject),
		Topic:    strings.TrimSpace(in.Context.Topic),
		Level:    strings.TrimSpace(in.Context.Level),
	})
	if err != nil {
		return Output{}, fmt.Errorf("failed to render prompt for %s: %w", in.ResponseType, err)
	}

	kept, tokens := b.trimHistory(in.History)

	messages := make([]generation.Message, 0, len(kept)+2)
	messages = append(messages, generation.Message{Role: generation.RoleSystem, Content: strings.TrimSpace(system.String())})
	for _, turn := range kept {
		role := generation.RoleUser
		if turn.Role == "assistant" {
			role = generation.RoleAssistant
		}
		messages = append(messages, generation.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, generation.Message{Role: generation.RoleUser, Content: in.Task})

	return Output{
		Messages:      messages,
		DroppedTurns:  len(in.History) - len(kept),
		HistoryTokens: tokens,
	}, nil
}

// CountTokens returns the cl100k token count of text.
func (b *Builder) CountTokens(text string) int {
	ids, _, err := b.codec.Encode(text)
	if err != nil {
		// Rough fallback of four bytes per token.
		return (len(text) + 3) / 4
	}
	return len(ids)
}

// trimHistory keeps the newest turns whose combined size fits the budget.
func (b *Builder) trimHistory(history []domain.Turn) ([]domain.Turn, int) {
	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := b.CountTokens(history[i].Content)
		if total+n > b.historyBudget {
			break
		}
		total += n
		start = i
	}
	return history[start:], total
}

func templateName(rt domain.ResponseType) string {
	if !rt.Valid() {
		rt = domain.ResponseTypeFreeChat
	}
	return string(rt) + ".tmpl"
}
