// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgfeed/dgfeed/internal/version"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var errNoText = errors.New("no readable text")

// extract downloads the article page and pulls out its main text content,
// dropping navigation, ads and other boilerplate.
func (a *app) extract(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := a.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("want 200, got %d", res.StatusCode)
	}

	art, err := readability.FromReader(res.Body, u)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(art.TextContent)
	if text == "" {
		return "", errNoText
	}
	return text, nil
}

// stripHTML returns the plain text of an HTML fragment. It returns an empty
// string if s has no textual content or isn't parseable.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}
