package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// fixed rows: header, pipeline, search bar, footer
const chromeRows = 4

// bodyHeight is the space left for the catalog and detail panes.
func (m Model) bodyHeight() int {
	h := m.height - chromeRows - (AgentLogRows + 2)
	if h < MinCatalogRows {
		h = MinCatalogRows
	}
	return h
}

func (m Model) split() bool {
	return m.width >= LayoutSplitWidth
}

// catalogSize returns the table width and visible row count.
func (m Model) catalogSize() (int, int) {
	body := m.bodyHeight()
	if m.session.Expanded() == "" {
		return m.width, body - 1
	}
	if m.split() {
		return m.width * 11 / 20, body - 1
	}
	rows := body / 3
	if rows < MinCatalogRows {
		rows = MinCatalogRows
	}
	return m.width, rows
}

// detailSize returns the inner size of the detail viewport.
func (m Model) detailSize() (int, int) {
	body := m.bodyHeight()
	if m.split() {
		catalogWidth, _ := m.catalogSize()
		return maxInt(m.width-catalogWidth-4, 10), maxInt(body-2, 1)
	}
	_, rows := m.catalogSize()
	return maxInt(m.width-4, 10), maxInt(body-rows-1-2, 1)
}

// renderMain renders the dashboard layout.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderPipeline())
	b.WriteString("\n")
	b.WriteString(m.renderSearchBar())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderAgentLog())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderBody() string {
	catalog := m.renderCatalog()
	if m.session.Expanded() == "" {
		return catalog
	}
	detail := m.renderDetailPane()
	if m.split() {
		return lipgloss.JoinHorizontal(lipgloss.Top, catalog, detail)
	}
	return lipgloss.JoinVertical(lipgloss.Left, catalog, detail)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status != "" {
		return styles.Footer.Render(styles.AccentText.Render(m.status) + "  " + m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return styles.Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
