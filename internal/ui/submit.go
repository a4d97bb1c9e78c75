package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/squadboard/internal/workflow"
)

const (
	submitFieldPrompt = iota
	submitFieldAttach
)

func (m Model) handleSubmitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.focus = focusCatalog
		m.promptInput.Blur()
		m.attachInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		cmd := m.setSubmitField(1 - m.submitField)
		return m, cmd

	case key.Matches(msg, m.keys.CycleAspect):
		m.submit.CycleAspectRatio()
		m.prefs.AspectRatio = m.submit.AspectRatio
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.CycleRes):
		m.submit.CycleResolution()
		m.prefs.Resolution = m.submit.Resolution
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Attach):
		m.stageAttachment()
		return m, nil

	case key.Matches(msg, m.keys.Unstage):
		if n := len(m.submit.Attachments()); n > 0 {
			m.submit.Unstage(n - 1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.submitField == submitFieldAttach && strings.TrimSpace(m.attachInput.Value()) != "" {
			m.stageAttachment()
			return m, nil
		}
		return m.beginSubmit()
	}

	var cmd tea.Cmd
	if m.submitField == submitFieldAttach {
		m.attachInput, cmd = m.attachInput.Update(msg)
	} else {
		m.promptInput, cmd = m.promptInput.Update(msg)
		m.submit.Prompt = m.promptInput.Value()
	}
	return m, cmd
}

func (m *Model) setSubmitField(field int) tea.Cmd {
	m.submitField = field
	if field == submitFieldAttach {
		m.promptInput.Blur()
		return m.attachInput.Focus()
	}
	m.attachInput.Blur()
	return m.promptInput.Focus()
}

// stageAttachment stages the path typed in the attach field. Non-image
// files are rejected here, before any request is built.
func (m *Model) stageAttachment() {
	path := strings.TrimSpace(m.attachInput.Value())
	if path == "" {
		return
	}
	if err := m.submit.StageFile(path); err != nil {
		if errors.Is(err, workflow.ErrNotImage) {
			m.attachErr = "Not an image: " + path
		} else {
			m.attachErr = err.Error()
		}
		m.logger.Debug().Err(err).Str("path", path).Msg("attachment rejected")
		return
	}
	m.attachErr = ""
	m.attachInput.SetValue("")
}

func (m Model) beginSubmit() (tea.Model, tea.Cmd) {
	m.submit.Prompt = m.promptInput.Value()
	req, err := m.submit.Begin()
	if err != nil {
		if errors.Is(err, workflow.ErrEmptyPrompt) {
			m.attachErr = "Enter a prompt first"
		}
		return m, nil
	}
	m.attachErr = ""
	m.logger.Info().
		Str("aspect_ratio", req.AspectRatio).
		Str("resolution", req.Resolution).
		Int("files", len(req.Files)).
		Msg("submitting job")
	return m, m.generate(req)
}

func (m Model) handleSubmitResult(msg submitMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.submit.Fail(msg.err)
		m.logger.Warn().Err(msg.err).Msg("submission failed")
		return m, nil
	}
	m.submit.Succeed()
	m.promptInput.SetValue("")
	m.attachInput.SetValue("")
	m.session.SubmitAccepted(msg.jobID, msg.prompt)
	m.logger.Info().Str("job_id", msg.jobID).Msg("job submitted")
	m.status = "Submitted " + msg.jobID
	m.selected = 0
	if m.focus == focusSubmit {
		m.focus = focusCatalog
		m.promptInput.Blur()
		m.attachInput.Blur()
	}
	return m, nil
}

// renderSubmit renders the new-job form as a centered modal.
func (m Model) renderSubmit() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("New image job"))
	b.WriteString("\n\n")
	b.WriteString(m.promptInput.View())
	b.WriteString("\n")
	b.WriteString(m.attachInput.View())
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("aspect ") + styles.AccentText.Render(m.submit.AspectRatio))
	b.WriteString(styles.MutedText.Render("   resolution ") + styles.AccentText.Render(m.submit.Resolution))
	b.WriteString("\n")

	files := m.submit.Attachments()
	if len(files) == 0 {
		b.WriteString(styles.FaintText.Render("no reference images"))
	} else {
		for _, f := range files {
			line := fmt.Sprintf("• %s  %s  %s", truncateMiddle(f.Name, 40), f.ContentType, humanize.Bytes(uint64(len(f.Data))))
			b.WriteString(styles.Text.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch {
	case m.submit.InFlight():
		b.WriteString(m.spinner.View() + " " + styles.WarningText.Render("Submitting..."))
	case m.submit.Err() != "":
		b.WriteString(styles.DangerText.Render(m.submit.Err()))
	case m.attachErr != "":
		b.WriteString(styles.WarningText.Render(m.attachErr))
	case m.submit.CanSubmit():
		b.WriteString(styles.SuccessText.Render("Ready"))
	default:
		b.WriteString(styles.FaintText.Render("Enter a prompt"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.keys.submitHelp()))

	width := m.width - 10
	if width > 100 {
		width = 100
	}
	modal := styles.Focused.Padding(1, 2).Width(width).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
