package main

import (
	"fmt"
	"io"
	"strings"

	"yashubustudio/issuematch/matcher"
)

const previewCandidates = 3

func printSummary(w io.Writer, results []matcher.MatchResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "==== Match preview ====")
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches above the threshold")
		return
	}
	for i, res := range results {
		fmt.Fprintf(w, "%d. [%s] %s: %s\n", i+1, res.OriginRegion, res.ThemeName, shorten(res.OriginIssueText, 80))
		limit := previewCandidates
		if len(res.Candidates) < limit {
			limit = len(res.Candidates)
		}
		for _, c := range res.Candidates[:limit] {
			fmt.Fprintf(w, "    - %s (score=%.3f) %s\n", c.ComparatorRegion, c.Score, shorten(c.ComparatorIssueText, 60))
		}
		if extra := len(res.Candidates) - limit; extra > 0 {
			fmt.Fprintf(w, "    ... %d more\n", extra)
		}
	}
}

func shorten(text string, max int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "(empty)"
	}
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return text
}
