package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bryanwahyu/reelscript/internal/client"
	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/domain/scripts"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

func renderResult(w io.Writer, r analysis.Result) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	if r.IsDemoMode {
		fmt.Fprintln(w, warnStyle.Render("demo result: the AI backend was unavailable"))
	}

	if r.Original.Transcription != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Transcription"))
		fmt.Fprintln(w, r.Original.Transcription)
		if r.Original.Translation != "" && r.Original.Translation != r.Original.Transcription {
			fmt.Fprintln(w, dimStyle.Render(r.Original.Translation))
		}
	}

	if len(r.Keys) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Why it works"))
		for _, k := range r.Keys {
			fmt.Fprintf(w, "  %s: %s\n", k.Title, k.Description)
		}
	}

	if len(r.Script) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Script"))
		fmt.Fprintln(w, r.ScriptText())
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Recommendations"))
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %s: %s\n", rec.Category, rec.Text)
		}
	}
}

func renderScriptRow(w io.Writer, s scripts.SavedScript) {
	title := s.Result.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s  %s  %s\n", dimStyle.Render(string(s.ID)), s.SavedAt.Local().Format("2006-01-02 15:04"), title)
}

func renderLimit(w io.Writer, name string, current, maxReq int, window time.Duration, resetAt, now time.Time) {
	line := fmt.Sprintf("%-18s %d/%d per %s", name, current, maxReq, window)
	if current >= maxReq {
		fmt.Fprintln(w, warnStyle.Render(line+", resets in "+ratelimit.FormatReset(resetAt, now)))
		return
	}
	fmt.Fprintln(w, okStyle.Render(line))
}

func renderLocal(w io.Writer, name string, s ratelimit.Status, now time.Time) {
	renderLimit(w, name, s.Current, s.Max, s.Window, s.ResetAt, now)
}

func renderRemote(w io.Writer, name string, s client.LimitStatus, now time.Time) {
	renderLimit(w, name, s.Current, s.Max, time.Duration(s.WindowMs)*time.Millisecond, s.ResetAt(), now)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, strings.TrimSuffix(word, "s"))
}
