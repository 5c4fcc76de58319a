package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// candidateModel lets the user choose one centerline candidate, or chain
// them all, when the centerline layer holds several entities.
type candidateModel struct {
	cands  []ingest.Candidate
	cursor int // len(cands) is the "chain all" row
	choice int
	done   bool
}

func newCandidateModel(cands []ingest.Candidate) candidateModel {
	return candidateModel{cands: cands}
}

func (m candidateModel) Init() tea.Cmd { return nil }

func (m candidateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.cands) {
			m.cursor++
		}
	case "enter":
		m.done = true
		m.choice = m.cursor
		if m.cursor == len(m.cands) {
			m.choice = ingest.ChainAll
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m candidateModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Centerline"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i := 0; i <= len(m.cands); i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		var line string
		if i == len(m.cands) {
			line = cursor + "chain all pieces"
		} else {
			line = cursor + candidateLine(m.cands[i])
		}
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func candidateLine(c ingest.Candidate) string {
	closed := ""
	if c.Closed {
		closed = " closed"
	}
	return fmt.Sprintf("%2d  %-10s %-6s %12.3f m  %d vertices%s",
		c.Index+1, c.Type, c.Handle, c.Length, len(c.Vertices), closed)
}

// pickCandidate runs the picker on the terminal. It implements
// ingest.Picker.
func pickCandidate(cands []ingest.Candidate) (int, error) {
	final, err := tea.NewProgram(newCandidateModel(cands), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return 0, fmt.Errorf("centerline picker: %w", err)
	}
	m := final.(candidateModel)
	if !m.done {
		return 0, errors.New(errors.ErrCodeInvalidInput, "no centerline selected")
	}
	return m.choice, nil
}

// fixedPicker picks candidate n (1-based), or chains all for 0.
func fixedPicker(n int) ingest.Picker {
	return func(cands []ingest.Candidate) (int, error) {
		if n == 0 {
			return ingest.ChainAll, nil
		}
		if n < 1 || n > len(cands) {
			return 0, errors.New(errors.ErrCodeInvalidInput, "--pick %d out of range, the layer has %d candidates", n, len(cands))
		}
		return n - 1, nil
	}
}
