package tui

import (
	"github.com/derailed/tcell/v2"
)

// bindKeys installs the global shortcuts:
//
//	Ctrl-N  new chat
//	Ctrl-G  analytics overlay
//	Ctrl-T  toggle dark mode
//	Ctrl-E  re-run email sync
//	Ctrl-H  focus history panel
//	Alt-1..3 canned suggestions
//	Ctrl-C  quit
func (a *App) bindKeys() {
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlN:
			a.newChat()
			return nil
		case tcell.KeyCtrlG:
			a.showAnalytics()
			return nil
		case tcell.KeyCtrlT:
			a.toggleDarkMode()
			return nil
		case tcell.KeyCtrlE:
			go a.runEmailSync()
			return nil
		case tcell.KeyCtrlH:
			a.SetFocus(a.historyList)
			return nil
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			if event.Modifiers()&tcell.ModAlt != 0 {
				switch event.Rune() {
				case '1', '2', '3':
					a.useSuggestion(int(event.Rune() - '1'))
					return nil
				}
			}
		}
		return event
	})
}
