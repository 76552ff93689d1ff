package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/catalogtable/internal/producttable/form"
	"github.com/abgdnv/catalogtable/internal/producttable/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

const (
	colID    = 6
	colName  = 28
	colPrice = 12
	colStock = 7
)

var fieldKeys = [3]string{form.FieldName, form.FieldPrice, form.FieldStock}
var fieldLabels = [3]string{"Name", "Price", "Stock"}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Products"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeEdit:
		b.WriteString(m.editView())
	case modeConfirmDelete:
		b.WriteString(m.confirmView())
	default:
		b.WriteString(m.formView(m.inputs, m.fieldErrs))
	}
	b.WriteString("\n")

	b.WriteString(m.tableView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) formView(inputs [3]textinput.Model, errs form.FieldErrors) string {
	lines := make([]string, 0, len(inputs))
	for i := range inputs {
		line := m.styles.Label.Render(fieldLabels[i]) + inputs[i].View()
		if msg, ok := errs[fieldKeys[i]]; ok {
			line += "  " + m.styles.FieldErr.Render(msg)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) editView() string {
	body := fmt.Sprintf("Edit product %s\n", m.target.ID) + m.formView(m.draft, m.draftErrs)
	body += m.styles.Muted.Render("enter save · esc cancel · empty field abandons")
	return m.styles.Dialog.Render(body) + "\n"
}

func (m *Model) confirmView() string {
	q := fmt.Sprintf("Delete %q (id %s)? [y/n]", m.target.Name, m.target.ID)
	return m.styles.Dialog.Render(q) + "\n"
}

func (m *Model) tableView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(row("ID", "Name", "Price", "Stock")))
	if len(m.products) > 0 {
		b.WriteString("  " + m.styles.Muted.Render(m.scrollIndicator()))
	}
	b.WriteString("\n")

	if len(m.products) == 0 {
		switch {
		case m.loading:
			b.WriteString(m.styles.Muted.Render(m.spinner.View() + " Loading products"))
		case m.loadErr != nil:
			b.WriteString(m.styles.StatusErr.Render("Failed to load products: " + m.loadErr.Error()))
		default:
			b.WriteString(m.styles.Muted.Render("No products"))
		}
		b.WriteString("\n")
		return b.String()
	}

	m.renderRange()
	first, last := m.vz.VisibleRange()
	for i := first; i < last; i++ {
		line := m.rows[i]
		if i == m.cursor && m.focus == focusTable {
			b.WriteString(m.styles.Selected.Render(line))
		} else {
			b.WriteString(m.styles.Row.Render(line))
		}
		b.WriteString("\n")
		for range m.rowHeight - 1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRange renders the rows of the virtualizer range that are not cached
// yet and forgets the ones that left it.
func (m *Model) renderRange() {
	first, last := m.vz.Range()
	for i := range m.rows {
		if i < first || i >= last {
			delete(m.rows, i)
		}
	}
	for _, item := range m.vz.Items() {
		if _, ok := m.rows[item.Index]; ok {
			continue
		}
		p := m.products[item.Index]
		m.rows[item.Index] = row(p.ID, p.Name, form.FormatPrice(p.Price), strconv.Itoa(p.Stock))
	}
}

// scrollIndicator reports the visible rows and how far down the list the
// viewport sits.
func (m *Model) scrollIndicator() string {
	first, last := m.vz.VisibleRange()
	text := fmt.Sprintf("rows %d-%d of %d", first+1, last, m.vz.Count())
	if scrollable := m.vz.TotalSize() - m.vz.ViewportSize(); scrollable > 0 {
		text += fmt.Sprintf(" (%d%%)", m.vz.ScrollOffset()*100/scrollable)
	}
	return text
}

func row(id, name, price, stock string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell(id, colID),
		cell(name, colName),
		lipgloss.NewStyle().Width(colPrice).MaxWidth(colPrice).Align(lipgloss.Right).Render(price),
		lipgloss.NewStyle().Width(colStock).MaxWidth(colStock).Align(lipgloss.Right).Render(stock),
	)
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).PaddingRight(1).Render(s)
}

func (m *Model) statusView() string {
	var parts []string
	if m.loading && len(m.products) > 0 {
		parts = append(parts, m.styles.Muted.Render(m.spinner.View()+" Refreshing"))
	}
	for _, kind := range []table.MutationKind{table.CreateMutation, table.UpdateMutation, table.DeleteMutation} {
		if m.pending[kind] {
			parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("%s pending", kind)))
			continue
		}
		if st := m.ctrl.State(kind); st.Status == table.Failure && st.Err != nil && m.status == "" {
			parts = append(parts, m.styles.StatusErr.Render(fmt.Sprintf("%s failed: %v", kind, st.Err)))
		}
	}
	if m.loadErr != nil && len(m.products) > 0 {
		parts = append(parts, m.styles.StatusErr.Render("Showing cached rows: "+m.loadErr.Error()))
	}
	if at, ok := m.ctrl.FetchedAt(); ok && !m.loading {
		parts = append(parts, m.styles.Muted.Render("refreshed at "+at.Format(time.TimeOnly)))
	}
	if m.status != "" {
		style := m.styles.StatusOK
		if m.statusErr {
			style = m.styles.StatusErr
		}
		parts = append(parts, style.Render(m.status))
	}
	return strings.Join(parts, "  ")
}
