package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atlasvoice/atlas/pkg/session"
)

// noteMsg wraps one controller notification.
type noteMsg struct {
	Note session.Note
}

// notesClosedMsg is sent when the controller's note channel closes.
type notesClosedMsg struct{}

// connectResultMsg carries the outcome of a connect attempt.
type connectResultMsg struct {
	Err error
}

// sendResultMsg carries the outcome of a text send.
type sendResultMsg struct {
	Err error
}

// clearErrorMsg clears the transient error bar.
type clearErrorMsg struct{}

// waitForNote blocks on the next controller notification.
func waitForNote(notes <-chan session.Note) tea.Cmd {
	return func() tea.Msg {
		note, ok := <-notes
		if !ok {
			return notesClosedMsg{}
		}
		return noteMsg{Note: note}
	}
}

// connectCmd starts a session in the background.
func connectCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{Err: ctrl.Connect(context.Background())}
	}
}

// sendTextCmd transmits one typed message.
func sendTextCmd(ctrl *session.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{Err: ctrl.SendText(text)}
	}
}
