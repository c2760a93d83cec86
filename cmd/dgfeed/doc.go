// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Dgfeed fetches RSS feeds, summarizes new articles with an LLM and posts the
summaries to Discord webhooks.

# Usage

	$ dgfeed [flags...] <command>

Available commands:

  - run: fetch all feeds once, summarize and post new articles, then exit.
  - serve: start an HTTP server with a liveness endpoint and run the
    pipeline on a cron schedule.
  - feeds: print the list of configured feeds and their processed counts.

# Environment Variables

The dgfeed program relies on the following environment variables:

  - LLM_URL: URL of an OpenAI-compatible chat-completions endpoint (for
    example, LM Studio or Ollama). Required unless SUMMARY_BACKEND is set
    to "gemini".
  - LLM_MODEL: model name passed to the endpoint. Defaults to "llama3".
  - LLM_API_KEY: optional bearer token for the endpoint.
  - SUMMARY_BACKEND: "openai" (default) or "gemini".
  - GEMINI_API_KEY: Gemini API key, required for the "gemini" backend.
  - GEMINI_MODEL: Gemini model name. Defaults to "gemini-1.5-flash".
  - SUMMARY_MAX_CHARS: maximum length of a summary. Defaults to 1800.
  - SUMMARY_LANGUAGE: language summaries are written in. Defaults to
    "English".
  - LOG_LEVEL: log verbosity (DEBUG, INFO, WARN, ERROR). Defaults to INFO.
  - STATE_DIRECTORY: directory for state files. Defaults to
    $XDG_STATE_HOME/dgfeed.
  - CONFIG: path to the configuration file. Defaults to config.star in the
    state directory.
  - ADDR: address the serve command listens on. Defaults to
    "localhost:8000".
  - SCHEDULE: cron expression for the serve command. Defaults to
    "0 7 * * *" (every day at 07:00).

# Configuration

Feeds are configured in a Starlark file (config.star by default) that
defines a list of feeds, for example:

	feeds = [
	    feed(
	        name = "tech-news",
	        url = "https://example.com/feed.xml",
	        webhook = "https://discord.com/api/webhooks/123/abc",
	        max_articles = 3,
	        block_rule = lambda item: "sponsored" in item.title.lower(),
	    )
	]

Each feed must have a unique name (used as the state file key), a feed URL
and a Discord webhook URL. max_articles caps how many new articles are
processed per run (default 5).

Block and keep rules are Starlark functions that take a feed item as an
argument and return a boolean value. If a block rule returns true, the item
is skipped. If a keep rule is set and returns false, the item is skipped.
The item passed to the rules is a struct with title, url, description and
categories keys.

# State

For every feed, dgfeed keeps a JSON file in the state directory with the
IDs of all articles that were successfully posted. An article whose ID is
recorded there is never posted again. The ID is recorded only after the
webhook accepted the message, so failed articles are retried on the next
run. State files are written atomically and a few timestamped backups are
kept next to them.

A run lock in the state directory prevents two overlapping runs from
racing on the state files.
*/
package main

import (
	_ "embed"

	"github.com/dgfeed/dgfeed/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
