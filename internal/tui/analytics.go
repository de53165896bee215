package tui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
)

const (
	pageAnalytics = "analytics"
	maxBarWidth   = 30
)

// showAnalytics opens the analytics overlay computed from the current history
func (a *App) showAnalytics() {
	a.mu.RLock()
	records := a.records
	a.mu.RUnlock()

	keywords, buckets := a.analytics.Compute(records)

	var b strings.Builder
	b.WriteString("[::b]Top Keywords[-:-:-]\n\n")
	if len(keywords) == 0 {
		b.WriteString("  No queries yet.\n")
	}
	maxCount := 0
	for _, k := range keywords {
		if k.Count > maxCount {
			maxCount = k.Count
		}
	}
	accent := colorTag(a.scheme.Accent)
	for _, k := range keywords {
		fmt.Fprintf(&b, "  %-16s [%s]%s[-] %d\n",
			tview.Escape(k.Keyword), accent, bar(k.Count, maxCount), k.Count)
	}

	b.WriteString("\n[::b]Queries Over Time[-:-:-]\n\n")
	if len(buckets) == 0 {
		b.WriteString("  No activity yet.\n")
	}
	maxCount = 0
	for _, tb := range buckets {
		if tb.Count > maxCount {
			maxCount = tb.Count
		}
	}
	for _, tb := range buckets {
		fmt.Fprintf(&b, "  %s [%s]%s[-] %d\n", tb.Day, accent, bar(tb.Count, maxCount), tb.Count)
	}
	b.WriteString("\nPress Esc to close.")

	view := tview.NewTextView()
	view.SetDynamicColors(true)
	view.SetBorder(true)
	view.SetTitle(" Analytics ")
	view.SetBackgroundColor(a.scheme.Background.Color())
	view.SetTextColor(a.scheme.Text.Color())
	view.SetBorderColor(a.scheme.Border.Color())
	view.SetTitleColor(a.scheme.Title.Color())
	view.SetText(b.String())
	view.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			a.pages.RemovePage(pageAnalytics)
			a.SetFocus(a.input)
			return nil
		}
		return event
	})

	a.pages.AddPage(pageAnalytics, view, true, true)
	a.SetFocus(view)
}

// bar renders a count as a proportional block bar
func bar(count, maxCount int) string {
	if maxCount <= 0 {
		return ""
	}
	width := count * maxBarWidth / maxCount
	if width < 1 {
		width = 1
	}
	return strings.Repeat("▇", width)
}
