package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/machine-layout/layout"
	"github.com/wippyai/machine-layout/report"
	"github.com/wippyai/machine-layout/typedesc"
	"github.com/wippyai/machine-layout/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type exploreState int

const (
	stateSelectType exploreState = iota
	stateShowLayout
	stateInputBytes
	stateShowResult
)

type exploreModel struct {
	err      error
	set      *typedesc.Set
	calc     *layout.Calculator
	entries  []report.Entry
	result   string
	input    textinput.Model
	selected int
	state    exploreState
}

func newExploreModel(set *typedesc.Set, calc *layout.Calculator) (*exploreModel, error) {
	m := &exploreModel{set: set, calc: calc, state: stateSelectType}
	for _, name := range set.Order {
		e, err := report.Describe(name, set.Types[name], calc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m.entries = append(m.entries, e)
	}
	return m, nil
}

type decodedMsg struct {
	err    error
	result string
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) current() types.Type {
	return m.set.Types[m.entries[m.selected].Name]
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputBytes {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				if len(m.entries) > 0 {
					m.state = stateShowLayout
				}
			case stateInputBytes:
				return m, m.decode
			case stateShowResult:
				m.state = stateShowLayout
				m.result = ""
				m.err = nil
			}

		case "d":
			if m.state == stateShowLayout {
				if _, ok := m.current().(*types.Enum); ok {
					m.prepareInput()
					m.state = stateInputBytes
					return m, nil
				}
			}

		case "esc":
			switch m.state {
			case stateShowLayout:
				m.state = stateSelectType
			case stateInputBytes, stateShowResult:
				m.state = stateShowLayout
				m.result = ""
				m.err = nil
			}
		}

	case decodedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputBytes {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *exploreModel) prepareInput() {
	e := m.entries[m.selected]
	ti := textinput.New()
	ti.Placeholder = e.Size + " bytes in hex"
	ti.Prompt = "bytes: "
	ti.Width = 48
	ti.Focus()
	m.input = ti
}

func (m *exploreModel) decode() tea.Msg {
	e := m.current().(*types.Enum)
	data, err := parseHex(m.input.Value())
	if err != nil {
		return decodedMsg{err: err}
	}
	v, err := types.DecodeEnum(e, types.BytesTagReader{Bytes: data, Endian: m.calc.Target().Endian})
	if err != nil {
		return decodedMsg{err: err}
	}
	return decodedMsg{result: fmt.Sprintf("variant %s: %s", v.Discriminant, v.Type)}
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Layout Explorer"))
	b.WriteString(" ")
	b.WriteString(m.calc.Target().String())
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString("No types described.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	e := m.entries[m.selected]
	switch m.state {
	case stateSelectType:
		for i, entry := range m.entries {
			line := fmt.Sprintf("%-20s %6s / %-3d", entry.Name, entry.Size, entry.Align)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + nameStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter show • q quit"))

	case stateShowLayout:
		b.WriteString(m.formatEntry(e))
		b.WriteString("\n")
		help := "esc back • q quit"
		if e.Kind == "enum" {
			help = "d decode • " + help
		}
		b.WriteString(helpStyle.Render(help))

	case stateInputBytes:
		b.WriteString(fmt.Sprintf("Decode %s\n\n", nameStyle.Render(e.Name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter decode • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Decoding %s:\n\n", nameStyle.Render(e.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *exploreModel) formatEntry(e report.Entry) string {
	var b strings.Builder
	b.WriteString(nameStyle.Render(e.Name))
	b.WriteString(" ")
	b.WriteString(typeStyle.Render(e.Type))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("size %s, align %d", e.Size, e.Align))
	if e.Data != nil {
		b.WriteString(fmt.Sprintf(", %d data bytes", *e.Data))
	}
	b.WriteString("\n\n")
	for _, f := range e.Fields {
		b.WriteString(fmt.Sprintf("  @%-4d %s %s\n", f.Offset, typeStyle.Render(f.Type), helpStyle.Render("("+f.Size+")")))
	}
	for _, v := range e.Variants {
		b.WriteString(fmt.Sprintf("  %s => %s\n", v.Discriminant, typeStyle.Render(v.Type)))
		for _, tag := range v.Tags {
			b.WriteString(fmt.Sprintf("      tag @%d %s = %s\n", tag.Offset, tag.Type, tag.Value))
		}
	}
	return b.String()
}

func newExploreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Browse layouts interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.set == nil {
				return fmt.Errorf("no type description loaded; pass --types")
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("explore needs a terminal; use size or decode instead")
			}
			m, err := newExploreModel(a.set, a.calc)
			if err != nil {
				return err
			}
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
