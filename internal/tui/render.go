package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/illarion/lockpass/internal/session"
	"github.com/illarion/lockpass/internal/vault"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("7"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	welcomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("1")).
			Foreground(lipgloss.Color("0")).
			Bold(true)
	activeTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	hotkeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Underline(true)
	faintStyle     = lipgloss.NewStyle().Faint(true)
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
)

const minWidth = 40

// Render draws the whole screen for v at the given size
func Render(v session.View, width, height int) string {
	width = max(width, minWidth)
	inner := width - 2

	header := box("Menu", tabs(v), inner)
	footer := box("Info", footerText(v), inner)

	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer)-2, 3)

	var body string
	switch v.Menu {
	case session.Home:
		body = box("Home", home(v, inner), inner)
	case session.PasswordEntries:
		body = entriesScreen(v, inner)
	case session.SelectedEntry:
		body = entryScreen(v, inner)
	}
	body = lipgloss.NewStyle().MaxHeight(bodyHeight + 2).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func box(title, content string, width int) string {
	return borderStyle.Width(width).Render(titleStyle.Render(title) + "\n" + content)
}

func tabs(v session.View) string {
	items := []struct {
		menu  session.MenuItem
		label string
	}{
		{session.Home, "Home"},
		{session.PasswordEntries, "Password-Entries"},
	}
	if v.Menu == session.SelectedEntry {
		items = append(items, struct {
			menu  session.MenuItem
			label string
		}{session.SelectedEntry, "Edit-Value"})
	}

	var parts []string
	for _, it := range items {
		first, rest := it.label[:1], it.label[1:]
		if it.menu == v.Menu {
			parts = append(parts, activeTabStyle.Render(it.label))
			continue
		}
		parts = append(parts, hotkeyStyle.Render(first)+rest)
	}
	parts = append(parts, hotkeyStyle.Render("Q")+"uit")
	return strings.Join(parts, " | ")
}

func home(v session.View, width int) string {
	lines := []string{
		welcomeStyle.Render("Welcome to lockpass"),
		"Your personal terminal password manager",
		"",
	}
	if v.Author != "" {
		lines = append(lines, "Vault by "+v.Author)
	}
	if v.Comment != "" {
		lines = append(lines, v.Comment)
	}
	lines = append(lines,
		fmt.Sprintf("%d entries", len(v.Entries)),
		"",
		"Press 'p' to access password entries",
		"Press 'a' to add new entries",
		"Press 's' to select an entry",
		"Press 'r' to remove an entry",
	)
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

func entryList(v session.View, width int) string {
	if len(v.Entries) == 0 {
		return faintStyle.Render("No entries, press 'a' to add one")
	}
	var lines []string
	for i, e := range v.Entries {
		label := truncate(e.Label, width-2)
		if i == v.Selected {
			lines = append(lines, selectedStyle.Render("> "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	return strings.Join(lines, "\n")
}

func entriesScreen(v session.View, width int) string {
	leftW := max(width/5, 16)
	rightW := width - leftW - 2

	left := box("Passwords", entryList(v, leftW), leftW)

	var detail string
	if v.Selected >= 0 {
		e := v.Entries[v.Selected]
		detail = fmt.Sprintf("%s\n%s %s\n%s %s",
			titleStyle.Render(e.Label),
			faintStyle.Render("Type:"), e.Type,
			faintStyle.Render("ID:"), e.ID,
		)
	} else {
		detail = faintStyle.Render("Nothing selected")
	}
	right := box("Detail", detail, rightW)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func entryScreen(v session.View, width int) string {
	d := v.Detail
	if d == nil {
		return box("Entry", faintStyle.Render("Nothing selected"), width)
	}

	labelW := 0
	for _, f := range d.Fields {
		labelW = max(labelW, len(f.Label))
	}

	var lines []string
	for _, f := range d.Fields {
		value := f.Value
		if v.Mode == session.Editing && f.Field == v.Field {
			value = withCursor(v.Input, v.Cursor)
		}
		line := fmt.Sprintf("%-*s  %s", labelW, f.Label, value)
		if f.Field == v.Field {
			lines = append(lines, selectedStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}

	lines = append(lines, "",
		faintStyle.Render(fmt.Sprintf("Type: %s", d.Type)),
		faintStyle.Render("Last modified: "+d.LastModified.Local().Format("2006-01-02 15:04:05")),
	)
	if len(d.Files) > 0 {
		lines = append(lines, faintStyle.Render("Files: "+strings.Join(d.Files, ", ")))
	}

	title := "Entry"
	if v.Mode == session.Editing {
		title = "Entry (editing " + v.Field.String() + ")"
	}
	return box(title, strings.Join(lines, "\n"), width)
}

func withCursor(input string, cursor int) string {
	runes := []rune(input)
	cursor = min(max(cursor, 0), len(runes))
	at := " "
	rest := ""
	if cursor < len(runes) {
		at = string(runes[cursor])
		rest = string(runes[cursor+1:])
	}
	return string(runes[:cursor]) + cursorStyle.Render(at) + rest
}

func footerText(v session.View) string {
	if v.Status != "" {
		return infoStyle.Render(v.Status)
	}
	switch {
	case v.Mode == session.Editing:
		return infoStyle.Render("Enter to save, Esc to cancel")
	case v.Menu == session.SelectedEntry:
		reveal := "show"
		if v.Reveal {
			reveal = "hide"
		}
		return infoStyle.Render(fmt.Sprintf("e edit, c copy, s %s %s, t toggle type", reveal, strings.ToLower(vault.FieldValue.String())))
	default:
		return infoStyle.Render("FOSS password manager and more")
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
