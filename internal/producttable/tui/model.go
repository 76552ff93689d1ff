// Package tui is the terminal front end of the product table.
package tui

import (
	"context"
	"fmt"

	"github.com/abgdnv/catalogtable/internal/producttable/client"
	"github.com/abgdnv/catalogtable/internal/producttable/form"
	"github.com/abgdnv/catalogtable/internal/producttable/table"
	"github.com/abgdnv/catalogtable/internal/producttable/virtual"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type focusArea int

const (
	focusName focusArea = iota
	focusPrice
	focusStock
	focusTable
	focusCount
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirmDelete
)

// chromeLines is everything around the table rows while the edit dialog,
// the tallest panel, is open.
const chromeLines = 13

type (
	productsLoadedMsg struct {
		seq      uint64
		products []client.Product
		err      error
	}
	mutationDoneMsg struct {
		kind   table.MutationKind
		result table.Result
	}
	invalidatedMsg struct{}
)

// Options tune the table layout.
type Options struct {
	RowHeight int
	Overscan  int
}

// Model is the bubbletea model of the product table. Create it with New and
// release it with Close.
type Model struct {
	ctx  context.Context
	ctrl *table.Controller

	keys    keyMap
	styles  styles
	help    help.Model
	spinner spinner.Model

	inputs    [3]textinput.Model
	focus     focusArea
	fieldErrs form.FieldErrors

	mode       mode
	draft      [3]textinput.Model
	draftFocus int
	draftErrs  form.FieldErrors
	target     client.Product

	products  []client.Product
	loading   bool
	loadErr   error
	cursor    int
	rowHeight int
	vz        *virtual.Virtualizer
	// rows holds rendered lines of the rows in the virtualizer range,
	// overscan included, so scrolling by a row reuses them.
	rows map[int]string

	// fetchSeq numbers every fetch; loadedSeq is the newest one applied.
	fetchSeq  uint64
	loadedSeq uint64

	pending   map[table.MutationKind]bool
	status    string
	statusErr bool

	width, height int

	invalidations chan struct{}
	unsubscribe   func()
}

func New(ctx context.Context, ctrl *table.Controller, opts Options) *Model {
	if opts.RowHeight <= 0 {
		opts.RowHeight = 1
	}
	m := &Model{
		ctx:           ctx,
		ctrl:          ctrl,
		keys:          defaultKeyMap(),
		styles:        defaultStyles(),
		help:          help.New(),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		rowHeight:     opts.RowHeight,
		vz:            virtual.New(0, opts.RowHeight, opts.RowHeight, virtual.WithOverscan(opts.Overscan)),
		rows:          make(map[int]string),
		pending:       make(map[table.MutationKind]bool),
		invalidations: make(chan struct{}, 1),
	}
	m.inputs = newInputs()
	m.draft = newInputs()
	m.inputs[focusName].Focus()

	if cached, _, ok := ctrl.Cached(); ok {
		m.setProducts(cached)
	}
	m.unsubscribe = ctrl.OnInvalidate(func() {
		select {
		case m.invalidations <- struct{}{}:
		default:
		}
	})
	return m
}

func newInputs() [3]textinput.Model {
	var in [3]textinput.Model
	for i, placeholder := range []string{"product name", "0.00", "0"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 64
		ti.Width = 24
		ti.Prompt = "> "
		in[i] = ti
	}
	return in
}

// Close stops listening for invalidations.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetch(), m.waitForInvalidation())
}

func (m *Model) fetch() tea.Cmd {
	m.loading = true
	m.fetchSeq++
	seq, ctx, ctrl := m.fetchSeq, m.ctx, m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		products, err := ctrl.Products(ctx)
		return productsLoadedMsg{seq: seq, products: products, err: err}
	})
}

func (m *Model) waitForInvalidation() tea.Cmd {
	ctx, ch := m.ctx, m.invalidations
	return func() tea.Msg {
		select {
		case <-ch:
			return invalidatedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.vz.SetViewport(max(m.height-chromeLines, m.rowHeight))
		m.vz.ScrollToIndex(m.cursor)
		return m, nil

	case productsLoadedMsg:
		return m, m.loaded(msg)

	case invalidatedMsg:
		return m, tea.Batch(m.fetch(), m.waitForInvalidation())

	case mutationDoneMsg:
		m.finish(msg.kind, msg.result)
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || m.mode != modeBrowse {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollRows(-1)
		case tea.MouseButtonWheelDown:
			m.scrollRows(1)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	if m.focus != focusTable {
		if key.Matches(msg, m.keys.Submit) {
			return m, m.submit()
		}
		return m, m.updateFocusedInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.pageRows())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.pageRows())
	case key.Matches(msg, m.keys.Home):
		m.moveCursor(-len(m.products))
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.products))
	case key.Matches(msg, m.keys.Edit):
		m.openEdit()
	case key.Matches(msg, m.keys.Delete):
		if p, ok := m.selected(); ok {
			m.target = p
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, m.keys.Refresh):
		m.ctrl.Refresh()
	}
	return m, nil
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeDialog()
		m.setStatus("Edit cancelled", false)
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.setDraftFocus((m.draftFocus + 1) % len(m.draft))
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.setDraftFocus((m.draftFocus + len(m.draft) - 1) % len(m.draft))
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.pending[table.UpdateMutation] {
			m.setStatus("Update already pending, wait for it to finish", true)
			return m, nil
		}
		product := m.target
		draft := form.Input{Name: m.draft[0].Value(), Price: m.draft[1].Value(), Stock: m.draft[2].Value()}
		return m, m.mutate(table.UpdateMutation, func(ctx context.Context) table.Result {
			return m.ctrl.Edit(ctx, product, draft)
		})
	}
	var cmd tea.Cmd
	m.draft[m.draftFocus], cmd = m.draft[m.draftFocus].Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.target.ID
		m.mode = modeBrowse
		if m.pending[table.DeleteMutation] {
			m.setStatus(fmt.Sprintf("Delete already pending, product %s was not deleted", id), true)
			return m, nil
		}
		return m, m.mutate(table.DeleteMutation, func(ctx context.Context) table.Result {
			return m.ctrl.Delete(ctx, id, true)
		})
	case key.Matches(msg, m.keys.Decline):
		m.mode = modeBrowse
		m.finish(table.DeleteMutation, m.ctrl.Delete(m.ctx, m.target.ID, false))
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	if m.pending[table.CreateMutation] {
		return nil
	}
	in := form.Input{
		Name:  m.inputs[focusName].Value(),
		Price: m.inputs[focusPrice].Value(),
		Stock: m.inputs[focusStock].Value(),
	}
	if _, errs := form.Validate(in); len(errs) > 0 {
		m.fieldErrs = errs
		return nil
	}
	m.fieldErrs = nil
	return m.mutate(table.CreateMutation, func(ctx context.Context) table.Result {
		return m.ctrl.Submit(ctx, in)
	})
}

// loaded applies a finished fetch. Results older than the newest applied one
// are dropped, and a list the cache no longer considers fresh is fetched again.
func (m *Model) loaded(msg productsLoadedMsg) tea.Cmd {
	if msg.seq < m.loadedSeq {
		return nil
	}
	if msg.seq >= m.fetchSeq {
		m.loading = false
	}
	if msg.err != nil {
		m.loadErr = msg.err
		return nil
	}
	m.loadedSeq = msg.seq
	m.loadErr = nil
	m.setProducts(msg.products)
	if _, fresh, ok := m.ctrl.Cached(); ok && !fresh && !m.loading {
		return m.fetch()
	}
	return nil
}

// mutate runs call off the update loop and reports back with mutationDoneMsg.
func (m *Model) mutate(kind table.MutationKind, call func(context.Context) table.Result) tea.Cmd {
	m.pending[kind] = true
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{kind: kind, result: call(ctx)}
	}
}

func (m *Model) finish(kind table.MutationKind, res table.Result) {
	delete(m.pending, kind)
	switch res.Outcome {
	case table.Succeeded:
		switch kind {
		case table.CreateMutation:
			for i := range m.inputs {
				m.inputs[i].Reset()
			}
			m.fieldErrs = nil
			m.setStatus(fmt.Sprintf("Added %q (id %s)", res.Product.Name, res.Product.ID), false)
		case table.UpdateMutation:
			m.closeDialog()
			m.setStatus(fmt.Sprintf("Updated %q", res.Product.Name), false)
		case table.DeleteMutation:
			m.setStatus(fmt.Sprintf("Deleted product %s", res.Product.ID), false)
		}
	case table.Rejected:
		if len(res.Fields) > 0 {
			if kind == table.UpdateMutation {
				m.draftErrs = res.Fields
			} else {
				m.fieldErrs = res.Fields
			}
			return
		}
		m.closeDialog()
		m.setStatus(fmt.Sprintf("Catalog rejected %s: %v", kind, res.Err), true)
	case table.NotFound:
		m.closeDialog()
		m.setStatus("Product no longer exists, list refreshed", true)
	case table.Abandoned:
		m.closeDialog()
		if kind == table.DeleteMutation {
			m.setStatus("Delete cancelled", false)
		} else {
			m.setStatus("Edit abandoned: every field must be filled", true)
		}
	case table.Failed:
		m.closeDialog()
		m.setStatus(fmt.Sprintf("Failed to %s product: %v", kind, res.Err), true)
	}
}

func (m *Model) openEdit() {
	p, ok := m.selected()
	if !ok {
		return
	}
	m.target = p
	draft := form.DraftFor(p.Name, p.Price, p.Stock)
	m.draft[0].SetValue(draft.Name)
	m.draft[1].SetValue(draft.Price)
	m.draft[2].SetValue(draft.Stock)
	m.draftErrs = nil
	m.mode = modeEdit
	m.setDraftFocus(0)
}

func (m *Model) closeDialog() {
	if m.mode == modeEdit {
		for i := range m.draft {
			m.draft[i].Blur()
		}
	}
	m.mode = modeBrowse
	m.draftErrs = nil
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	for i := range m.inputs {
		if focusArea(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) setDraftFocus(i int) {
	m.draftFocus = i
	for j := range m.draft {
		if j == i {
			m.draft[j].Focus()
		} else {
			m.draft[j].Blur()
		}
	}
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	if m.mode == modeEdit {
		var cmd tea.Cmd
		m.draft[m.draftFocus], cmd = m.draft[m.draftFocus].Update(msg)
		return cmd
	}
	if m.focus == focusTable {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *Model) setProducts(products []client.Product) {
	m.products = products
	clear(m.rows)
	m.vz.SetCount(len(products))
	m.cursor = min(m.cursor, max(len(products)-1, 0))
	m.vz.ScrollToIndex(m.cursor)
}

func (m *Model) moveCursor(delta int) {
	if len(m.products) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.products)-1)
	m.vz.ScrollToIndex(m.cursor)
}

// scrollRows moves the viewport by n rows and keeps the cursor inside it.
func (m *Model) scrollRows(n int) {
	m.vz.ScrollBy(n * m.rowHeight)
	first, last := m.vz.VisibleRange()
	if last > first {
		m.cursor = min(max(m.cursor, first), last-1)
	}
}

func (m *Model) pageRows() int {
	return max(m.vz.ViewportSize()/m.rowHeight, 1)
}

func (m *Model) selected() (client.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.products) {
		return client.Product{}, false
	}
	return m.products[m.cursor], true
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}
