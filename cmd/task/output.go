package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/tasks/internal/task"
	"github.com/metalagman/tasks/internal/transfer"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

const (
	defaultWidth   = 100
	minTitleWidth  = 16
	fixedColsWidth = 72
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	doneStyle   = cellStyle.Faint(true)
)

// terminalWidth returns the column count when w is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return cols
}

func titleWidth(cols int) int {
	if cols <= 0 {
		cols = defaultWidth
	}
	return max(minTitleWidth, cols-fixedColsWidth)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printTasks(w io.Writer, tasks []task.Task) error {
	if a.jsonOut {
		return printJSON(w, transfer.FromTasks(tasks))
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	_, err := fmt.Fprintln(w, renderTable(tasks, titleWidth(terminalWidth(w))))
	return err
}

func (a *app) printTask(w io.Writer, t task.Task) error {
	if a.jsonOut {
		return printJSON(w, transfer.FromTask(t))
	}
	_, err := fmt.Fprintf(w, "%s %s\n", t.UID, t.Title)
	return err
}

func renderTable(tasks []task.Task, width int) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.UID,
			truncate.StringWithTail(t.Title, uint(width), "…"),
			t.Status,
			t.Priority,
			formatDue(t),
			strings.Join(t.Tags, ","),
			t.Project,
			t.Assignee,
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("UID", "TITLE", "STATUS", "PRIORITY", "DUE", "TAGS", "PROJECT", "ASSIGNEE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(tasks) && tasks[row].Status == task.StatusDone:
				return doneStyle
			default:
				return cellStyle
			}
		})
	return tbl.String()
}

func formatDue(t task.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.Format(task.DateLayout)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

// renderDetail prints one task with its description rendered as markdown.
func renderDetail(t task.Task, dependents []task.Task, cols int) string {
	if cols <= 0 {
		cols = defaultWidth
	}
	var b strings.Builder
	field := func(name, value string) {
		fmt.Fprintf(&b, "%-11s %s\n", name+":", value)
	}
	field("UID", t.UID)
	field("Title", t.Title)
	field("Status", t.Status)
	field("Priority", t.Priority)
	field("Due", formatDue(t))
	field("Tags", orDash(strings.Join(t.Tags, ", ")))
	field("Project", orDash(t.Project))
	field("Assignee", orDash(t.Assignee))
	field("Depends on", orDash(strings.Join(t.DependsOn, ", ")))
	uids := make([]string, len(dependents))
	for i, d := range dependents {
		uids[i] = d.UID
	}
	field("Blocks", orDash(strings.Join(uids, ", ")))
	field("Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	field("Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if desc := renderMarkdown(t.Description, cols); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

func renderMarkdown(text string, width int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
