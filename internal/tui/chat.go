package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/mhidalgo/inboxq/internal/config"
	"github.com/mhidalgo/inboxq/internal/services"
)

// onInputDone handles Enter on the query input
func (a *App) onInputDone(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	text := a.input.GetText()
	a.input.SetText("")
	a.submitQuery(text)
}

// submitQuery runs the exchange off the event loop; service observers push
// the resulting timeline updates back into the UI
func (a *App) submitQuery(text string) {
	go func() {
		err := a.session.SendQuery(a.ctx, text)
		switch {
		case err == nil || errors.Is(err, services.ErrEmptyInput):
			// Blank input is silently ignored
		case errors.Is(err, services.ErrAccessDenied):
			// The notice observer already raised the popup
		case errors.Is(err, services.ErrRequestInFlight):
			a.flash("[yellow]Still working on the previous question[-]")
		default:
			if a.logger != nil {
				a.logger.Printf("send query: %v", err)
			}
		}
	}()
}

// newChat clears the conversation
func (a *App) newChat() {
	go func() {
		a.session.NewChat()
	}()
}

// renderTimeline redraws the chat panel from a timeline snapshot
func (a *App) renderTimeline(msgs []services.Message) {
	a.mu.RLock()
	typing := a.typing
	rate := a.rate
	a.mu.RUnlock()

	var b strings.Builder
	if len(msgs) == 0 {
		b.WriteString("\n[::b]Welcome! Ask about your emails.[-:-:-]\n\n")
		b.WriteString("Type a question below to get started.\n")
	}

	userTag := colorTag(a.scheme.UserMessage)
	botTag := colorTag(a.scheme.BotMessage)

	for i, msg := range msgs {
		tag := botTag
		who := "Assistant"
		if msg.Sender == services.SenderUser {
			tag = userTag
			who = "You"
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [gray](%s)[-]\n", tag, who, msg.Timestamp.Format("15:04:05"))
		b.WriteString(tview.Escape(msg.Text))
		b.WriteString("\n")

		last := i == len(msgs)-1
		if last && msg.Sender == services.SenderAssistant && !typing && rate.Measured {
			fmt.Fprintf(&b, "[gray]Typing Speed: %.2f chars/sec[-]\n", rate.CharsPerSec)
		}
		b.WriteString("\n")
	}

	if typing {
		b.WriteString("[gray]Fetching from emails...[-]\n")
	}

	a.chatView.SetText(b.String())
	a.chatView.ScrollToEnd()
}

// renderSuggestions redraws the canned queries and history insights
func (a *App) renderSuggestions() {
	a.mu.RLock()
	records := a.records
	a.mu.RUnlock()

	insights := a.analytics.ComputeInsights(records)
	longest := insights.LongestQuery
	if longest == "" {
		longest = "N/A"
	}
	lastQuery := insights.LastQuery
	if lastQuery == "" {
		lastQuery = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Longest Query: %s | Last Query: %s\n", tview.Escape(longest), tview.Escape(lastQuery))
	if a.config != nil {
		for i, s := range a.config.Chat.Suggestions {
			fmt.Fprintf(&b, "[yellow]%d[-] %s  ", i+1, tview.Escape(s))
		}
	}
	a.suggestions.SetText(b.String())
}

// useSuggestion copies a canned query into the input field
func (a *App) useSuggestion(index int) {
	if a.config == nil || index < 0 || index >= len(a.config.Chat.Suggestions) {
		return
	}
	a.input.SetText(a.config.Chat.Suggestions[index])
	a.SetFocus(a.input)
}

// colorTag renders a theme color as a tview color-tag value
func colorTag(c config.Color) string {
	if c == "" || c == "default" {
		return "-"
	}
	return string(c)
}

// showBlockedPopup raises the access-denied modal
func (a *App) showBlockedPopup(text string) {
	modal := tview.NewModal().
		SetText("Access Denied\n\n" + text).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) {
			a.pages.RemovePage(pageModal)
			a.SetFocus(a.input)
		})
	a.pages.AddPage(pageModal, modal, true, true)
}
