package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/melo/internal/tui/model"
	"github.com/matheus3301/melo/internal/tui/ui"
)

const (
	placeholderEmpty   = "No conversations yet"
	placeholderLoading = "Loading..."
)

// ConversationRow is one rendered list entry.
type ConversationRow struct {
	ID      string
	Label   string
	Count   string
	Active  bool
	Pending bool
}

// ConversationRows projects the list part of st into table rows.
func ConversationRows(st model.ChatState) []ConversationRow {
	rows := make([]ConversationRow, 0, len(st.Conversations))
	for _, c := range st.Conversations {
		id := string(c.ID)
		rows = append(rows, ConversationRow{
			ID:      id,
			Label:   c.Label(),
			Count:   c.CountLabel(),
			Active:  id != "" && id == st.ConversationID,
			Pending: id != "" && id == st.PendingDelete,
		})
	}
	return rows
}

// ConversationList is the saved-conversations table.
type ConversationList struct {
	*tview.Table
	theme *ui.Theme
	rows  []ConversationRow
	last  model.ChatState
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)

	cl := &ConversationList{
		Table: table,
		theme: theme,
	}
	cl.Restyle()
	return cl
}

// Name implements ui.Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements ui.Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "n", Description: "New"},
		{Key: "d", Description: "Delete"},
		{Key: "r", Description: "Refresh"},
	}
}

// Restyle implements ui.Component.
func (cl *ConversationList) Restyle() {
	cl.SetBorderColor(cl.theme.BorderColor)
	cl.SetBackgroundColor(cl.theme.BgColor)
	cl.SetTitleColor(cl.theme.TitleColor)
	cl.SetSelectedStyle(tcell.StyleDefault.
		Foreground(cl.theme.TableCursorFg).
		Background(cl.theme.TableCursorBg))
	cl.Update(cl.last)
}

// Update refreshes the table from st, keeping the cursor on the same
// conversation when it still exists.
func (cl *ConversationList) Update(st model.ChatState) {
	selected := cl.SelectedID()
	cl.last = st
	cl.rows = ConversationRows(st)
	cl.render()

	row := 1
	for i, r := range cl.rows {
		if r.ID == selected {
			row = i + 1
			break
		}
	}
	if len(cl.rows) > 0 {
		cl.Select(row, 0)
	}
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" STARTED", 1},
		{" MESSAGES", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	if len(cl.rows) == 0 {
		text := placeholderLoading
		if cl.last.EmptyList() {
			text = placeholderEmpty
		}
		cl.SetCell(1, 0, tview.NewTableCell(" "+text).
			SetSelectable(false).
			SetTextColor(cl.theme.MutedColor).
			SetExpansion(1))
		cl.SetTitle(" Conversations ")
		return
	}

	for i, r := range cl.rows {
		marker := "  "
		if r.Active {
			marker = "● "
		}
		color := cl.theme.FgColor
		if r.Pending {
			color = cl.theme.FlashErrColor
		}
		cl.SetCell(i+1, 0, tview.NewTableCell(" "+marker+r.Label).SetExpansion(1).SetTextColor(color))
		cl.SetCell(i+1, 1, tview.NewTableCell(r.Count+" ").SetAlign(tview.AlignRight).SetTextColor(color))
	}
	cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.rows)))
}

// SelectedID returns the id under the cursor, or "".
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.rows) {
		return ""
	}
	return cl.rows[idx].ID
}
