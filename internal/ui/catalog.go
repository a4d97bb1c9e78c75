package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/squadboard/internal/state"
)

// Column widths of the catalog table.
const (
	colMarker  = 2
	colStage   = 12
	colID      = 9
	colImages  = 4
	colWinner  = 16
	colCreated = 15
)

func (m Model) renderSearchBar() string {
	styles := m.theme.Styles()
	var parts []string

	if m.focus == focusSearch || m.search.Value() != "" {
		parts = append(parts, m.search.View())
	} else {
		parts = append(parts, styles.FaintText.Render("/ search"))
	}

	parts = append(parts, styles.MutedText.Render("sort:")+" "+styles.AccentText.Render(m.session.Catalog.Sort()))

	switch {
	case m.session.Catalog.Loading():
		parts = append(parts, m.spinner.View()+" "+styles.WarningText.Render("loading"))
	case m.session.Catalog.Err() != nil:
		parts = append(parts, styles.DangerText.Render("catalog: "+truncate(m.session.Catalog.Err().Error(), 60)))
	}

	return " " + strings.Join(parts, "   ")
}

// renderCatalog renders the job list with the selection kept in view.
func (m Model) renderCatalog() string {
	styles := m.theme.Styles()
	width, rows := m.catalogSize()
	jobs := m.session.CatalogJobs()

	promptWidth := width - colMarker - colStage - colID - colImages - colWinner - colCreated - 6
	compact := width < LayoutCompactWidth
	if compact {
		promptWidth += colWinner + colCreated
	}
	if promptWidth < 10 {
		promptWidth = 10
	}

	header := padRight("", colMarker) + padRight("STAGE", colStage) + " " + padRight("JOB", colID) + " " +
		padRight("IMG", colImages) + " "
	if !compact {
		header += padRight("WINNER", colWinner) + " " + padRight("CREATED", colCreated) + " "
	}
	header += "PROMPT"

	lines := []string{styles.MutedText.Bold(true).Render(truncate(header, width))}

	if len(jobs) == 0 {
		msg := "No jobs yet. Press n to submit one."
		if m.session.Catalog.Search() != "" {
			msg = "No jobs match " + fmt.Sprintf("%q", m.session.Catalog.Search())
		}
		lines = append(lines, styles.FaintText.Render("  "+msg))
		return m.padPane(lines, width, rows+1)
	}

	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := start + rows
	if end > len(jobs) {
		end = len(jobs)
	}

	for i := start; i < end; i++ {
		lines = append(lines, m.renderCatalogRow(jobs[i], i == m.selected, compact, promptWidth))
	}
	return m.padPane(lines, width, rows+1)
}

func (m Model) renderCatalogRow(job state.Job, selected, compact bool, promptWidth int) string {
	styles := m.theme.Styles()

	marker := "  "
	switch {
	case job.JobID == m.session.Expanded():
		marker = "▾ "
	case job.JobID == m.session.Tracked():
		marker = "● "
	}

	badge := styles.StageStyle(job.Stage).Width(colStage).Render(truncate(job.Stage.Label(), colStage-2))

	id := shortID(job.JobID)
	if job.Provisional {
		id += "*"
	}

	images := "-"
	if job.ImageCount > 0 {
		images = fmt.Sprintf("%d", job.ImageCount)
	}

	cells := []string{
		marker + badge,
		padRight(id, colID),
		padRight(images, colImages),
	}
	if !compact {
		winner := job.WinnerLabel()
		if winner == "" {
			winner = "-"
		}
		created := "-"
		if t := job.ParsedCreatedAt(); !t.IsZero() {
			created = humanize.RelTime(t, m.now, "ago", "from now")
		}
		cells = append(cells, padRight(truncate(winner, colWinner), colWinner), padRight(truncate(created, colCreated), colCreated))
	}
	cells = append(cells, truncate(job.Prompt, promptWidth))

	row := strings.Join(cells, " ")
	if selected && m.focus == focusCatalog {
		return styles.Selected.Render(row)
	}
	if job.Stage.Terminal() {
		return styles.Text.Render(row)
	}
	return styles.AccentText.Render(row)
}

// padPane fixes a pane to width x height so joined panes line up.
func (m Model) padPane(lines []string, width, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}
