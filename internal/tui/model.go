package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/snonux/clozerecall/internal/playback"
	"codeberg.org/snonux/clozerecall/internal/session"
	"codeberg.org/snonux/clozerecall/internal/task"
)

// Controller is the session API the model drives.
type Controller interface {
	Next(ctx context.Context) error
	Continue(ctx context.Context) error
	Submit(ctx context.Context) (task.FinishedTask, error)
	SetText(index int, text string)
	KeyUp(index int, key task.Key)
	Focus(index int)
	Play() error
	Snapshot() session.Snapshot
}

type taskLoadedMsg struct{ err error }

type submittedMsg struct{ err error }

type clipReadyMsg playback.ClipReady

type playedMsg struct{ err error }

// Model is the bubbletea model of a drill session.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	clips  <-chan playback.ClipReady
	snap   session.Snapshot
	inputs []textinput.Model
	// loadedTask is the task the inputs were built for.
	loadedTask *task.LearningTask
	clipCount  int
	busy       bool
	err        error
	width      int
}

// NewModel creates a model. clips may be nil when audio is disabled.
func NewModel(ctx context.Context, ctrl Controller, clips <-chan playback.ClipReady) *Model {
	return &Model{ctx: ctx, ctrl: ctrl, clips: clips, busy: true}
}

// Init loads the first task and starts listening for audio clips.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.nextCmd(false), m.waitForClip())
}

func (m *Model) nextCmd(viaContinue bool) tea.Cmd {
	return func() tea.Msg {
		if viaContinue {
			return taskLoadedMsg{err: m.ctrl.Continue(m.ctx)}
		}
		return taskLoadedMsg{err: m.ctrl.Next(m.ctx)}
	}
}

func (m *Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Submit(m.ctx)
		return submittedMsg{err: err}
	}
}

func (m *Model) playCmd() tea.Cmd {
	return func() tea.Msg {
		return playedMsg{err: m.ctrl.Play()}
	}
}

func (m *Model) waitForClip() tea.Cmd {
	if m.clips == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.clips
		if !ok {
			return nil
		}
		return clipReadyMsg(ev)
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case taskLoadedMsg:
		m.busy = false
		m.err = msg.err
		m.refresh()
		return m, nil

	case submittedMsg:
		m.busy = false
		m.err = msg.err
		m.refresh()
		return m, nil

	case playedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case clipReadyMsg:
		if msg.Generation == m.ctrl.Snapshot().AudioGeneration {
			m.clipCount = msg.Count
		}
		return m, m.waitForClip()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlP:
		return m, m.playCmd()
	}
	if m.busy {
		return m, nil
	}

	st := m.snap.State
	switch msg.Type {
	case tea.KeyEnter:
		m.busy = true
		m.err = nil
		if st.Phase == task.AwaitingInput && len(st.Inputs) > 0 {
			return m, m.submitCmd()
		}
		return m, m.nextCmd(true)
	case tea.KeyTab, tea.KeyShiftTab:
		m.cycleFocus(msg.Type == tea.KeyTab)
		return m, nil
	}

	index := st.Focus
	if st.Phase != task.AwaitingInput || index < 0 || index >= len(m.inputs) {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[index], cmd = m.inputs[index].Update(msg)
	m.ctrl.SetText(index, m.inputs[index].Value())
	if key, ok := taskKey(msg); ok {
		m.ctrl.KeyUp(index, key)
	}
	m.sync()
	return m, cmd
}

// taskKey maps a keystroke to the navigation key of the state machine.
func taskKey(msg tea.KeyMsg) (task.Key, bool) {
	switch msg.Type {
	case tea.KeyBackspace:
		return task.KeyErase, true
	case tea.KeyRight:
		return task.KeyRight, true
	case tea.KeyRunes, tea.KeySpace:
		return task.KeyChar, true
	}
	return 0, false
}

func (m *Model) cycleFocus(forward bool) {
	st := m.snap.State
	n := len(st.Inputs)
	if n == 0 || st.Phase != task.AwaitingInput {
		return
	}
	step := 1
	if !forward {
		step = n - 1
	}
	for i, idx := 1, st.Focus; i <= n; i++ {
		idx = (idx + step) % n
		if idx < 0 {
			idx += n
		}
		if st.Inputs[idx].Editable() {
			m.ctrl.Focus(idx)
			break
		}
	}
	m.sync()
}

// refresh rebuilds the text fields from the controller state.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	if m.snap.State.Task != m.loadedTask {
		m.loadedTask = m.snap.State.Task
		m.clipCount = 0
	}

	m.inputs = make([]textinput.Model, len(m.snap.State.Inputs))
	for i, in := range m.snap.State.Inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = in.MaxLength()
		ti.Width = in.Width
		ti.Placeholder = strings.Repeat("_", in.Width)
		ti.SetValue(in.Text)
		m.inputs[i] = ti
	}
	m.sync()
}

// sync copies focus and text from the controller state into the fields.
func (m *Model) sync() {
	m.snap = m.ctrl.Snapshot()
	for i := range m.inputs {
		if i >= len(m.snap.State.Inputs) {
			break
		}
		if m.inputs[i].Value() != m.snap.State.Inputs[i].Text {
			m.inputs[i].SetValue(m.snap.State.Inputs[i].Text)
		}
		if i == m.snap.State.Focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// View renders the exercise.
func (m *Model) View() string {
	var b strings.Builder
	st := m.snap.State

	switch {
	case !st.HasTask() && m.busy:
		b.WriteString("Loading next sentence...\n")
	case !st.HasTask():
		b.WriteString("No sentence loaded. Press Enter to retry.\n")
	default:
		b.WriteString(m.renderSentence())
		b.WriteString("\n\n")
		b.WriteString(m.renderHints())
		if st.Phase == task.ShowingFeedback || st.Invalid != nil {
			for _, tr := range st.Task.Translations {
				b.WriteString(translatedStyle.Render(tr))
				b.WriteString("\n")
			}
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status()))
	return frameStyle.Render(b.String())
}

func (m *Model) renderSentence() string {
	st := m.snap.State
	var b strings.Builder
	b.WriteString(st.Prefix)
	for i, in := range st.Inputs {
		switch {
		case in.Complete:
			b.WriteString(completeStyle.Render(in.Target))
		case i < len(m.inputs):
			b.WriteString(m.inputs[i].View())
		default:
			b.WriteString(strings.Repeat("_", in.Width))
		}
		b.WriteString(in.TextAfter)
	}
	return sentenceStyle.Render(b.String())
}

func (m *Model) renderHints() string {
	var b strings.Builder
	for _, in := range m.snap.State.Inputs {
		if in.Complete || in.Hint.IsZero() {
			continue
		}
		hint := in.Hint.Render(func(letter string) string { return matchedStyle.Render(letter) })
		fmt.Fprintf(&b, "%s %s\n", hintLabelStyle.Render(fmt.Sprintf("hint %d:", in.Index+1)), hint)
	}
	return b.String()
}

func (m *Model) status() string {
	c := m.snap.Counters
	action := "Enter check"
	if m.snap.State.Phase == task.ShowingFeedback || len(m.snap.State.Inputs) == 0 {
		action = "Enter next"
	}
	return fmt.Sprintf("done %d  ok %d  missed %d  audio %d clip(s)  |  %s  Tab move  Ctrl+P play  Esc quit",
		c.Tasks, c.Succeeded, c.Failed, m.clipCount, action)
}
