package mcpserver

// PostFormatContract describes the Markdown post format the blog reads.
const PostFormatContract = `# Post Format

Every post is a Markdown file under the content directory.

## Structure

` + "```" + `markdown
---
title: Automatic mocks in Jest      # OPTIONAL; falls back to the first heading, then the file name
date: 2021-05-02                    # OPTIONAL; YYYY-MM-DD or RFC 3339
description: One-line summary       # OPTIONAL; shown on citation cards instead of the excerpt
featuredImage: ./cover.jpg          # OPTIONAL; path relative to the post file
attributionName: Jane Doe           # OPTIONAL; credit for the cover image
attributionLink: https://example.com
draft: false                        # OPTIONAL; drafts are skipped unless include_drafts is set
---

Body text in standard Markdown (GitHub flavoured).
` + "```" + `

## Routes

- ` + "`" + `a/b.md` + "`" + ` is published at ` + "`" + `/a/b/` + "`" + `.
- ` + "`" + `a/index.md` + "`" + ` is published at ` + "`" + `/a/` + "`" + `, next to its images.
- When two files map to the same route the first in path order wins.

## Rules

1. Posts without a date sort last and show no date.
2. The excerpt is the first 140 characters of body text, cut on a word boundary.
3. Fenced code blocks are highlighted when they name a language.
4. Files and directories starting with a dot are ignored.
`
