// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Girish-SCM/mt5-server/internal/provision"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// PlainReporter returns a progress observer that writes one line per event.
// Used whenever animated output is inappropriate.
func PlainReporter(w io.Writer) provision.ProgressFunc {
	return func(p provision.Progress) {
		fmt.Fprintf(w, "[%3d%%] %s\n", p.Percent, p.Message)
	}
}

// RunInstall runs the install function while rendering its progress. In
// interactive mode a spinner and progress bar animate on stderr and Ctrl+C
// cancels the install's context; otherwise progress prints as plain lines.
func RunInstall(ctx context.Context, interactive bool, install func(ctx context.Context, report provision.ProgressFunc) error) error {
	if !interactive {
		return install(ctx, PlainReporter(os.Stderr))
	}

	m := &installModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(spinnerStyle),
		),
		bar: progress.New(progress.WithDefaultGradient()),
	}

	fnCtx, fnCancel := context.WithCancel(ctx)
	defer fnCancel()

	p := tea.NewProgram(m,
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	)

	go func() {
		err := install(fnCtx, func(event provision.Progress) {
			p.Send(progressMsg(event))
		})
		p.Send(installDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress display: %w", err)
	}

	if m.cancelled {
		fnCancel()
		return context.Canceled
	}
	return m.err
}

type (
	progressMsg    provision.Progress
	installDoneMsg struct{ err error }
)

type installModel struct {
	spinner spinner.Model
	bar     progress.Model

	message   string
	percent   int
	failed    bool
	done      bool
	cancelled bool
	err       error
}

func (m *installModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *installModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	case progressMsg:
		m.message = msg.Message
		m.percent = msg.Percent
		if msg.Step == provision.StepFailed {
			m.failed = true
		}
		return m, m.bar.SetPercent(float64(msg.Percent) / 100)
	case installDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *installModel) View() string {
	if m.done || m.cancelled {
		if m.err != nil || m.failed {
			return failStyle.Render("✗") + " " + m.message + "\n"
		}
		if m.message != "" {
			return okStyle.Render("✓") + " " + m.message + "\n"
		}
		return ""
	}
	return fmt.Sprintf("%s %s\n%s %d%%\n", m.spinner.View(), m.message, m.bar.View(), m.percent)
}
