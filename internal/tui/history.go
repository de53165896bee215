package tui

import (
	"fmt"

	"github.com/derailed/tview"
	"github.com/mattn/go-runewidth"
	"github.com/mhidalgo/inboxq/internal/gateway"
	"github.com/mhidalgo/inboxq/internal/services"
)

// historyItemWidth is how many cells of a query the side panel shows
const historyItemWidth = 50

// renderHistory redraws the history side panel, newest first
func (a *App) renderHistory(records []gateway.ChatRecord) {
	a.historyList.Clear()
	for _, rec := range records {
		main := runewidth.Truncate(rec.Query, historyItemWidth, "...")
		secondary := rec.Date.Local().Format("15:04:05")
		a.historyList.AddItem(main, secondary, 0, nil)
	}
}

// onHistorySelected opens the detail view for an exchange; blocked accounts
// get the access-denied popup instead
func (a *App) onHistorySelected(index int, _ string, _ string, _ rune) {
	a.mu.RLock()
	records := a.records
	a.mu.RUnlock()
	if index < 0 || index >= len(records) {
		return
	}
	rec := records[index]

	if a.access != nil && a.access.Blocked() {
		a.showBlockedPopup(services.AccessDeniedNotice)
		return
	}

	text := fmt.Sprintf("Query Details\n\nQuestion: %s\n\nResponse: %s\n\nTimestamp: %s",
		rec.Query, rec.Response, rec.Date.Local().Format("2006-01-02 15:04:05"))
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) {
			a.pages.RemovePage(pageModal)
			a.SetFocus(a.input)
		})
	a.pages.AddPage(pageModal, modal, true, true)
}
