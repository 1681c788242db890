package playback

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Player plays clips. Play must return once playback has started.
type Player interface {
	Play(ctx context.Context, clip *Clip) error
	Stop() error
}

// playerCommands lists the external players tried on linux, in order of
// preference. mpg123 first since it handles MP3 files best.
var playerCommands = []string{"mpg123", "ffplay", "play", "paplay", "aplay"}

// CommandPlayer plays clips through an external audio player process.
type CommandPlayer struct {
	name string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandPlayer picks the player binary. A non-empty preferred command
// is used as is; otherwise the platform default is looked up.
func NewCommandPlayer(preferred string) (*CommandPlayer, error) {
	name, err := findPlayer(preferred, runtime.GOOS, exec.LookPath)
	if err != nil {
		return nil, err
	}
	return &CommandPlayer{name: name}, nil
}

// Name returns the player command in use.
func (p *CommandPlayer) Name() string {
	return p.name
}

func findPlayer(preferred, goos string, lookPath func(string) (string, error)) (string, error) {
	if preferred != "" {
		if _, err := lookPath(preferred); err != nil {
			return "", fmt.Errorf("audio player %q not found: %w", preferred, err)
		}
		return preferred, nil
	}

	switch goos {
	case "darwin":
		return "afplay", nil
	case "windows":
		return "cmd", nil
	case "linux", "freebsd", "openbsd":
		for _, name := range playerCommands {
			if _, err := lookPath(name); err == nil {
				return name, nil
			}
		}
		return "", fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

func playerArgs(name, file string) []string {
	switch name {
	case "mpg123", "aplay", "play":
		return []string{"-q", file}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", file}
	case "cmd":
		return []string{"/c", "start", "/min", file}
	default:
		return []string{file}
	}
}

// Play stops any running playback and starts clip in the background.
func (p *CommandPlayer) Play(ctx context.Context, clip *Clip) error {
	if clip == nil || clip.Path == "" {
		return fmt.Errorf("clip has no audio file")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	cmd := exec.CommandContext(ctx, p.name, playerArgs(p.name, clip.Path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.name, err)
	}
	p.cmd = cmd

	go func() {
		_ = cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
	}()

	return nil
}

// Stop kills the running playback, if any.
func (p *CommandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *CommandPlayer) stopLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}
