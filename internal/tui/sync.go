package tui

import (
	"fmt"
	"strings"
)

const progressBarWidth = 40

// renderSyncProgress redraws the sync progress line; 0 hides it
func (a *App) renderSyncProgress(progress int) {
	if progress <= 0 {
		a.progressLine.SetText("")
		return
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * progressBarWidth / 100
	accent := colorTag(a.scheme.Accent)
	barText := fmt.Sprintf(" Syncing emails... [%s]%s[-]%s %d%%",
		accent,
		strings.Repeat("█", filled),
		strings.Repeat("░", progressBarWidth-filled),
		progress)
	a.progressLine.SetText(barText)
}
