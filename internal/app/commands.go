package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"notable/internal/reconcile"
	"notable/internal/types"
)

// stateMsg carries the coordinator state that resulted from an operation.
type stateMsg struct {
	state reconcile.State
}

type copyResultMsg struct {
	err error
}

func activateCmd(c *reconcile.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: c.Activate(context.Background())}
	}
}

func selectNoteCmd(c *reconcile.Coordinator, id string) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: c.SelectNote(context.Background(), id)}
	}
}

func addNoteCmd(c *reconcile.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: c.AddNote(context.Background())}
	}
}

func saveNoteCmd(c *reconcile.Coordinator, draft types.NoteDraft) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: c.SaveNote(context.Background(), draft)}
	}
}

func deleteNoteCmd(c *reconcile.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: c.DeleteNote(context.Background())}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyTextToClipboard(text)}
	}
}
