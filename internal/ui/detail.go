package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/workflow"
)

// refreshDetail re-renders the expanded job into the detail viewport.
// Scroll position is kept unless the content shrank below it.
func (m *Model) refreshDetail() {
	w, h := m.detailSize()
	m.detail.Width = w
	m.detail.Height = h
	if m.session.Expanded() == "" {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(m.renderDetailContent(w))
}

// renderDetailPane wraps the viewport in a panel.
func (m Model) renderDetailPane() string {
	styles := m.theme.Styles()
	panel := styles.Panel
	if m.focus == focusRefine {
		panel = styles.Focused
	}
	return panel.Width(m.detail.Width + 2).Render(m.detail.View())
}

func (m Model) renderDetailContent(width int) string {
	styles := m.theme.Styles()
	id := m.session.Expanded()
	detail, current := m.session.ExpandedDetail()

	var b strings.Builder
	title := styles.AccentText.Bold(true).Render(id)
	if detail == nil {
		b.WriteString(title)
		b.WriteString("\n\n")
		if err := m.session.DetailErr(); err != nil {
			b.WriteString(styles.DangerText.Render("Could not load job: " + errorText(err)))
			b.WriteString("\n")
			b.WriteString(styles.FaintText.Render("press R to retry"))
		} else {
			b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("loading..."))
		}
		return b.String()
	}

	b.WriteString(title)
	b.WriteString("  ")
	b.WriteString(styles.StageStyle(detail.Stage).Render(detail.Stage.Label()))
	if !current {
		b.WriteString("  " + m.spinner.View() + " " + styles.WarningText.Render("refreshing"))
	}
	if err := m.session.DetailErr(); err != nil {
		b.WriteString("  " + styles.DangerText.Render("refresh failed: "+errorText(err)))
	}
	b.WriteString("\n")

	wrap := lipgloss.NewStyle().Width(width)
	b.WriteString(wrap.Render(styles.Text.Render(detail.Prompt)))
	b.WriteString("\n")

	meta := []string{}
	if detail.AspectRatio != "" {
		meta = append(meta, detail.AspectRatio)
	}
	if detail.Resolution != "" {
		meta = append(meta, detail.Resolution)
	}
	if t := (banana.JobSummary{CreatedAt: detail.CreatedAt}).ParsedCreatedAt(); !t.IsZero() {
		meta = append(meta, "created "+humanize.RelTime(t, m.now, "ago", "from now"))
	}
	if len(meta) > 0 {
		b.WriteString(styles.MutedText.Render(strings.Join(meta, " · ")))
		b.WriteString("\n")
	}

	if detail.Error != nil && *detail.Error != "" {
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.DangerText.Render("Error: " + *detail.Error)))
		b.WriteString("\n")
	}

	if r := detail.Research; r != nil {
		b.WriteString(m.sectionTitle("Research"))
		writeField(&b, styles, "style", r.Style, width)
		writeField(&b, styles, "mood", r.Mood, width)
		writeField(&b, styles, "colors", strings.Join(r.Colors, ", "), width)
		writeField(&b, styles, "composition", r.Composition, width)
	}

	if len(detail.Prompts) > 0 {
		b.WriteString(m.sectionTitle("Prompts"))
		for _, p := range detail.Prompts {
			label := p.Variant
			if p.Label != "" {
				label += " (" + p.Label + ")"
			}
			b.WriteString(styles.AccentText.Render(label))
			b.WriteString("\n")
			b.WriteString(wrap.Render(styles.FaintText.Render(truncate(p.Prompt, width*3))))
			b.WriteString("\n")
		}
	}

	if len(detail.Images) > 0 {
		b.WriteString(m.sectionTitle(fmt.Sprintf("Images %d/%d", detail.SuccessfulImages(), len(detail.Images))))
		for i, img := range detail.Images {
			b.WriteString(m.renderImage(*detail, img, i == m.variant, width))
		}
	}

	if len(detail.Refinements) > 0 {
		b.WriteString(m.sectionTitle("Refinements"))
		for _, r := range detail.Refinements {
			when := ""
			if t := r.ParsedTime(); !t.IsZero() {
				when = humanize.RelTime(t, m.now, "ago", "from now")
			}
			line := r.Variant
			if r.Instruction != "" {
				line += ": " + r.Instruction
			}
			b.WriteString(styles.Text.Render(truncate(line, width-len(when)-2)))
			b.WriteString("  " + styles.FaintText.Render(when))
			b.WriteString("\n")
			if r.FilePath != "" {
				b.WriteString(styles.InfoText.Render("  " + truncateMiddle(m.artifactURL(r.FilePath), width-2)))
				b.WriteString("\n")
			}
		}
	}

	if detail.Summary != nil && *detail.Summary != "" {
		b.WriteString(m.sectionTitle("Summary"))
		b.WriteString(wrap.Render(styles.Text.Render(*detail.Summary)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderImage(detail banana.JobDetail, img banana.ImageVariant, cursor bool, width int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	pointer := "  "
	if cursor {
		pointer = styles.AccentText.Render("▸ ")
	}
	name := img.Variant
	if detail.Winner != nil && *detail.Winner == img.Variant {
		name += " ★"
	}
	b.WriteString(pointer)
	if img.Success {
		b.WriteString(styles.SuccessText.Render(name))
	} else {
		b.WriteString(styles.DangerText.Render(name))
	}

	if ev, ok := detail.EvaluationFor(img.Variant); ok {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("  #%d  total %.1f", ev.Rank, ev.Scores.Total)))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("    faithfulness %.1f  conciseness %.1f  readability %.1f  aesthetics %.1f",
			ev.Scores.Faithfulness, ev.Scores.Conciseness, ev.Scores.Readability, ev.Scores.Aesthetics)))
		if ev.Review != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).PaddingLeft(4).Render(styles.Text.Render(ev.Review)))
		}
	}
	b.WriteString("\n")

	switch {
	case img.Success && img.Path() != "":
		b.WriteString(styles.InfoText.Render("    " + truncateMiddle(m.artifactURL(img.Path()), width-4)))
		b.WriteString("\n")
	case !img.Success && img.Error != nil:
		b.WriteString(styles.DangerText.Render("    " + truncate(*img.Error, width-4)))
		b.WriteString("\n")
	}

	if img.Success {
		b.WriteString(m.renderRefineState(workflow.RefineKey{JobID: detail.JobID, Variant: img.Variant}))
	}
	return b.String()
}

func (m Model) renderRefineState(k workflow.RefineKey) string {
	styles := m.theme.Styles()
	form := m.refine.Get(k)
	switch {
	case form.InFlight:
		return "    " + m.spinner.View() + " " + styles.WarningText.Render("refining...") + "\n"
	case form.Open && m.focus == focusRefine && m.refineKey == k:
		line := "    " + m.refineInput.View() + "\n"
		if form.Err != "" {
			line += "    " + styles.DangerText.Render(form.Err) + "\n"
		}
		return line
	case form.Err != "":
		return "    " + styles.DangerText.Render(form.Err) + "\n"
	}
	return ""
}

func (m Model) sectionTitle(title string) string {
	return "\n" + m.theme.Styles().MutedText.Bold(true).Render(strings.ToUpper(title)) + "\n"
}

func writeField(b *strings.Builder, styles Styles, label, value string, width int) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(styles.MutedText.Render(padRight(label, 12)))
	b.WriteString(lipgloss.NewStyle().Width(maxInt(width-12, 10)).Render(styles.Text.Render(value)))
	b.WriteString("\n")
}

func errorText(err error) string {
	if msg := banana.ServerMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}
