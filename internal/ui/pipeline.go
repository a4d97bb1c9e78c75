package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderPipeline renders the tracked job's stage chips on one line.
func (m Model) renderPipeline() string {
	styles := m.theme.Styles()
	job, ok := m.session.TrackedJob()

	chips := make([]string, 0, len(m.session.Pipeline()))
	for _, step := range m.session.Pipeline() {
		chips = append(chips, styles.StepStyle(step.Status).Render(step.Stage.Label()))
	}
	line := " " + strings.Join(chips, styles.FaintText.Render("›"))

	if !ok {
		return line + "  " + styles.FaintText.Render("no job tracked")
	}
	used := lipgloss.Width(line) + 2
	label := styles.AccentText.Render(shortID(job.JobID))
	if prompt := truncate(job.Prompt, m.width-used-12); prompt != "" && m.width-used > 20 {
		label += " " + styles.MutedText.Render(prompt)
	}
	if job.Error != "" && m.width >= LayoutCompactWidth {
		label += "  " + styles.DangerText.Render(truncate(job.Error, 40))
	}
	return line + "  " + label
}

// renderAgentLog renders the most recent agent messages in a panel.
func (m Model) renderAgentLog() string {
	styles := m.theme.Styles()
	entries := m.session.Log.Entries()
	if len(entries) > AgentLogRows {
		entries = entries[len(entries)-AgentLogRows:]
	}

	inner := m.width - 4
	if inner < 20 {
		inner = 20
	}

	lines := make([]string, 0, AgentLogRows)
	if len(entries) == 0 {
		lines = append(lines, styles.FaintText.Render("waiting for agent activity"))
	}
	tracked := m.session.Tracked()
	for _, e := range entries {
		prefix := styles.FaintText.Render(e.Time.Local().Format("15:04:05")) + " " +
			styles.AccentText.Render(padRight(truncate(e.Agent, 12), 12)) + " "
		if e.JobID != tracked {
			prefix += styles.MutedText.Render(shortID(e.JobID)) + " "
		}
		room := inner - lipgloss.Width(prefix)
		lines = append(lines, prefix+styles.Text.Render(truncate(e.Message, room)))
	}
	for len(lines) < AgentLogRows {
		lines = append(lines, "")
	}

	return styles.Panel.Width(m.width - 2).Render(strings.Join(lines, "\n"))
}
