package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/squadboard/internal/workflow"
)

// openRefine reveals the instruction input of the selected variant.
func (m Model) openRefine() (tea.Model, tea.Cmd) {
	detail, _ := m.session.ExpandedDetail()
	if detail == nil || m.variant >= len(detail.Images) {
		return m, nil
	}
	img := detail.Images[m.variant]
	if !img.Success {
		m.status = "Variant " + img.Variant + " has no image to refine"
		return m, nil
	}
	k := workflow.RefineKey{JobID: detail.JobID, Variant: img.Variant}
	m.refine.Open(k)
	m.refineKey = k
	m.refineInput.SetValue(m.refine.Get(k).Instruction)
	m.focus = focusRefine
	m.refreshDetail()
	cmd := m.refineInput.Focus()
	return m, cmd
}

func (m Model) handleRefineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.refineKey
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.refine.SetInstruction(k, m.refineInput.Value())
		m.refine.Close(k)
		m.focus = focusCatalog
		m.refineInput.Blur()
		m.refreshDetail()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.refine.SetInstruction(k, m.refineInput.Value())
		req, err := m.refine.Begin(k)
		if err != nil {
			return m, nil
		}
		m.logger.Info().Str("job_id", k.JobID).Str("variant", k.Variant).Msg("requesting refinement")
		m.focus = focusCatalog
		m.refineInput.Blur()
		m.refreshDetail()
		return m, m.sendRefine(k, req)
	}

	var cmd tea.Cmd
	m.refineInput, cmd = m.refineInput.Update(msg)
	m.refine.SetInstruction(k, m.refineInput.Value())
	m.refreshDetail()
	return m, cmd
}

func (m Model) handleRefineResult(msg refineMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.refine.Fail(msg.key, msg.err)
		m.logger.Warn().Err(msg.err).Str("job_id", msg.key.JobID).Str("variant", msg.key.Variant).Msg("refinement failed")
		m.refreshDetail()
		return m, nil
	}
	line := m.refine.Succeed(msg.key)
	m.session.AppendLocal(msg.key.JobID, "refiner", line)
	if m.refineKey == msg.key {
		m.refineInput.SetValue("")
	}
	m.refreshDetail()
	return m, nil
}
