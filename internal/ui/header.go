package ui

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// renderHeader renders the status bar: logo, stream state, server and
// catalog freshness.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("squadboard", styles.Logo)}

	switch {
	case m.session.Connected():
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	case !m.session.HasConnected():
		parts = append(parts, bg.Render("● CONNECTING", styles.WarningText.Bold(true)))
	default:
		label := "● RECONNECTING"
		if since := m.session.DisconnectedAt(); !since.IsZero() && !compact {
			label += " (lost " + humanize.RelTime(since, m.now, "ago", "from now") + ")"
		}
		parts = append(parts, bg.Render(label, styles.DangerText))
	}

	if m.server != "" && !compact {
		parts = append(parts, bg.Render(truncateMiddle(m.server, 40), styles.MutedText))
	}

	parts = append(parts,
		bg.Render("Jobs:", styles.MutedText)+bg.Spaces(1)+
			bg.Render(fmt.Sprintf("%d", len(m.session.Catalog.IDs())), styles.Text))

	if job, ok := m.session.TrackedJob(); ok {
		parts = append(parts,
			bg.Render("Tracking:", styles.MutedText)+bg.Spaces(1)+
				bg.Render(shortID(job.JobID), styles.AccentText))
	}

	if loaded := m.session.Catalog.LoadedAt(); !loaded.IsZero() && !compact {
		parts = append(parts, bg.Render("synced "+humanize.RelTime(loaded, m.now, "ago", "from now"), styles.FaintText))
	}

	return bg.FillLine(bg.Spaces(1)+bg.Join(parts, "  "), m.width)
}
