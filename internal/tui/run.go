package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/snonux/clozerecall/internal/playback"
)

// Run starts the full screen drill and blocks until the user quits.
func Run(ctx context.Context, ctrl Controller, clips <-chan playback.ClipReady) error {
	p := tea.NewProgram(NewModel(ctx, ctrl, clips), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// ClipEvents adapts the coordinator's clip callback into a channel the UI
// can wait on. Events are dropped while the UI is not keeping up.
func ClipEvents(c *playback.Coordinator) <-chan playback.ClipReady {
	ch := make(chan playback.ClipReady, 16)
	c.SetOnClipReady(func(ev playback.ClipReady) {
		select {
		case ch <- ev:
		default:
		}
	})
	return ch
}
