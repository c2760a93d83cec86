// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgfeed/dgfeed/internal/request"
)

// Discord embed limits.
// https://discord.com/developers/docs/resources/message#embed-object-embed-limits
const (
	embedTitleLimit = 256
	embedDescLimit  = 4096
)

// postDelay is how long to wait between consecutive webhook requests for a
// single article, to stay clear of Discord rate limits.
var postDelay = time.Second

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

// post delivers the article summary to the feed's Discord webhook. Summaries
// longer than a single embed allows are split at word boundaries into
// numbered follow-up embeds, each sent as a separate request.
func (a *app) post(ctx context.Context, fd *feed, art *article) error {
	embeds := buildEmbeds(art)

	if a.dry {
		a.logf("dry run: would post %d embed(s) for %q to %s webhook", len(embeds), art.title, fd.name)
		return nil
	}

	for i, e := range embeds {
		if i > 0 {
			select {
			case <-time.After(postDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if _, err := request.Make[request.IgnoreResponse](ctx, request.Params{
			Method:     http.MethodPost,
			URL:        fd.webhook,
			Body:       webhookPayload{Embeds: []embed{e}},
			HTTPClient: a.httpc,
			Scrubber:   a.scrubber,
		}); err != nil {
			return err
		}
	}

	return nil
}

func buildEmbeds(art *article) []embed {
	title := art.title
	if utf8.RuneCountInString(title) > embedTitleLimit {
		title = truncate(title, embedTitleLimit-1) + "…"
	}

	parts := splitText(art.summary, embedDescLimit)

	embeds := make([]embed, 0, len(parts))
	for i, part := range parts {
		e := embed{Title: title, Description: part}
		if i == 0 {
			e.URL = art.link
		} else {
			e.Title = fmt.Sprintf("%s (%d)", truncate(title, embedTitleLimit-8), i+1)
		}
		embeds = append(embeds, e)
	}

	return embeds
}

// splitText splits s into chunks of at most limit runes, breaking at word
// boundaries where possible.
func splitText(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}

	var parts []string
	runes := []rune(s)
	for len(runes) > 0 {
		if len(runes) <= limit {
			parts = append(parts, string(runes))
			break
		}

		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i] == ' ' || runes[i] == '\n' {
				cut = i
				break
			}
		}

		parts = append(parts, strings.TrimRight(string(runes[:cut]), " \n"))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), " \n"))
	}

	return parts
}
