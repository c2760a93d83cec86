// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/dgfeed/dgfeed/internal/version"

	"github.com/mmcdole/gofeed"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// article is a single feed item flowing through the pipeline.
type article struct {
	id          string
	title       string
	link        string
	description string
	published   *time.Time

	// filled in by later pipeline stages
	text    string
	summary string
}

const fetchErrBodyLimit = 16384

// fetchNew downloads and parses the feed, filters out already processed and
// rule-blocked items, and returns up to maxArticles new articles, newest
// first.
func (a *app) fetchNew(ctx context.Context, fd *feed, seen *processedSet) ([]*article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := a.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, fetchErrBodyLimit))
		return nil, fmt.Errorf("want 200, got %d: %s", res.StatusCode, body)
	}

	parsed, err := a.fp.Parse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var articles []*article
	for _, item := range parsed.Items {
		id := cmp.Or(item.GUID, item.Link)
		if id == "" || seen.has(id) {
			continue
		}

		blocked, err := a.applyRules(fd, item)
		if err != nil {
			return nil, err
		}
		if blocked {
			a.slog.Debug("item blocked by rule", "feed", fd.name, "item", item.Link)
			continue
		}

		articles = append(articles, &article{
			id:          id,
			title:       item.Title,
			link:        item.Link,
			description: item.Description,
			published:   item.PublishedParsed,
		})
	}

	// Newest first; items without a publication date sort last. The sort is
	// stable so the feed's own ordering breaks ties.
	sort.SliceStable(articles, func(i, j int) bool {
		pi, pj := articles[i].published, articles[j].published
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return pi.After(*pj)
	})

	if len(articles) > fd.maxArticles {
		articles = articles[:fd.maxArticles]
	}

	return articles, nil
}

// applyRules reports whether the item should be dropped according to the
// feed's block and keep rules.
func (a *app) applyRules(fd *feed, item *gofeed.Item) (blocked bool, err error) {
	if fd.blockRule == nil && fd.keepRule == nil {
		return false, nil
	}

	categories := make([]starlark.Value, 0, len(item.Categories))
	for _, c := range item.Categories {
		categories = append(categories, starlark.String(c))
	}
	itemStruct := starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"title":       starlark.String(item.Title),
		"url":         starlark.String(item.Link),
		"description": starlark.String(item.Description),
		"categories":  starlark.NewList(categories),
	})

	thread := &starlark.Thread{
		Name: "dgfeed/rules",
		Print: func(thread *starlark.Thread, msg string) {
			a.logf("rule: %s", msg)
		},
	}

	if fd.blockRule != nil {
		got, err := starlark.Call(thread, fd.blockRule, starlark.Tuple{itemStruct}, nil)
		if err != nil {
			return false, fmt.Errorf("block rule for feed %q: %w", fd.name, err)
		}
		if got.Truth() {
			return true, nil
		}
	}

	if fd.keepRule != nil {
		got, err := starlark.Call(thread, fd.keepRule, starlark.Tuple{itemStruct}, nil)
		if err != nil {
			return false, fmt.Errorf("keep rule for feed %q: %w", fd.name, err)
		}
		if !got.Truth() {
			return true, nil
		}
	}

	return false, nil
}
