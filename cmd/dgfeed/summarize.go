// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgfeed/dgfeed/internal/api/google/gemini"
	"github.com/dgfeed/dgfeed/internal/api/openai"
)

// summaryInputLimit caps how much article text is sent to the model. Local
// models tend to have small context windows.
const summaryInputLimit = 20000

var errEmptySummary = errors.New("model returned an empty summary")

const systemPrompt = "You are a concise summarizer."

func userPrompt(text, language string, maxChars int) string {
	return fmt.Sprintf(
		"Summarize the following article in 3-4 sentences in %s. Keep the summary under %d characters. Reply with the summary only.\n\n%s",
		language, maxChars, text,
	)
}

// summarize asks the configured backend for a short summary of text.
func (a *app) summarize(ctx context.Context, text string) (string, error) {
	prompt := userPrompt(truncate(text, summaryInputLimit), a.cfg.language, a.cfg.maxChars)

	var summary string
	switch a.cfg.backend {
	case "gemini":
		resp, err := a.gemini.GenerateContent(ctx, gemini.GenerateContentParams{
			Contents: []*gemini.Content{
				{Parts: []*gemini.Part{{Text: prompt}}, Role: "user"},
			},
			SystemInstruction: &gemini.Content{
				Parts: []*gemini.Part{{Text: systemPrompt}},
			},
		})
		if err != nil {
			return "", err
		}
		var ok bool
		summary, ok = resp.Text()
		if !ok {
			return "", errEmptySummary
		}
	default:
		var err error
		summary, err = a.openai.ChatCompletion(ctx,
			openai.Message{Role: "system", Content: systemPrompt},
			openai.Message{Role: "user", Content: prompt},
		)
		if err != nil {
			return "", err
		}
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", errEmptySummary
	}

	// Models don't reliably respect the length instruction.
	if utf8.RuneCountInString(summary) > a.cfg.maxChars {
		summary = truncate(summary, a.cfg.maxChars-1) + "…"
	}

	return summary, nil
}
