package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"codeberg.org/snonux/clozerecall/internal/task"
)

var (
	// ErrNoTask is returned when an action needs a loaded task.
	ErrNoTask = errors.New("no task loaded")
	// ErrWrongPhase is returned when an action does not apply to the
	// current phase of the exercise.
	ErrWrongPhase = errors.New("action not allowed in current phase")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// TaskService fetches exercises and receives review results.
type TaskService interface {
	NextTask(ctx context.Context) (task.LearningTask, error)
	FinishTask(ctx context.Context, finished task.FinishedTask) error
}

// Audio is the part of the audio load coordinator the controller drives.
type Audio interface {
	LoadForSentence(sentenceID int, sentence string) uint64
	Play() error
	StopLoading()
	Close() error
}

// Counters track progress within one session.
type Counters struct {
	Tasks     int // exercises completed
	Succeeded int // word reviews that succeeded
	Failed    int // word reviews that failed
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	State           task.State
	AudioGeneration uint64
	Counters        Counters
}

// Options configure a Controller.
type Options struct {
	AutoPlay bool // play the sentence after every check
	Logger   *log.Logger
}

// Controller serialises all session actions.
type Controller struct {
	tasks    TaskService
	audio    Audio
	autoPlay bool
	logger   *log.Logger

	mu              sync.Mutex
	state           task.State
	audioGeneration uint64
	counters        Counters
	closed          bool
}

// New creates a controller without a task. Call Next to load the first one.
func New(tasks TaskService, audio Audio, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		tasks:    tasks,
		audio:    audio,
		autoPlay: opts.AutoPlay,
		logger:   opts.Logger,
		state:    task.State{Focus: task.NoFocus},
	}
}

// Next fetches a task and replaces the session state with it. On failure
// the current state is kept so the action can be retried.
func (c *Controller) Next(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	t, err := c.tasks.NextTask(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch next task: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.state = task.Load(t)
	if c.state.Invalid != nil {
		c.logger.Printf("Sentence %d cannot be drilled: %v", t.SentenceID, c.state.Invalid)
	}
	c.audioGeneration = c.audio.LoadForSentence(t.SentenceID, t.Sentence)
	return nil
}

// Continue moves on to the next task once the current one is finished.
// A task without blanks can always be skipped.
func (c *Controller) Continue(ctx context.Context) error {
	c.mu.Lock()
	allowed := !c.state.HasTask() || c.state.Phase == task.ShowingFeedback || len(c.state.Inputs) == 0
	c.mu.Unlock()

	if !allowed {
		return ErrWrongPhase
	}
	return c.Next(ctx)
}

// Submit checks every open blank. Reviews are reported to the task service
// when at least one blank was checked; a reporting failure is returned but
// the local state stays updated.
func (c *Controller) Submit(ctx context.Context) (task.FinishedTask, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return task.FinishedTask{}, ErrClosed
	}
	if !c.state.HasTask() {
		c.mu.Unlock()
		return task.FinishedTask{}, ErrNoTask
	}
	if c.state.Phase != task.AwaitingInput {
		c.mu.Unlock()
		return task.FinishedTask{}, ErrWrongPhase
	}

	next, finished := task.Submit(c.state)
	c.state = next
	for _, r := range finished.WordReviews {
		if r.Result == task.Succeeded {
			c.counters.Succeeded++
		} else {
			c.counters.Failed++
		}
	}
	if !finished.Empty() && next.Phase == task.ShowingFeedback {
		c.counters.Tasks++
	}
	if c.autoPlay && !finished.Empty() {
		if err := c.audio.Play(); err != nil {
			c.logger.Printf("Cannot play sentence audio: %v", err)
		}
	}
	c.mu.Unlock()

	if finished.Empty() {
		return finished, nil
	}
	if err := c.tasks.FinishTask(ctx, finished); err != nil {
		c.logger.Printf("Reporting %d reviews failed: %v", len(finished.WordReviews), err)
		return finished, fmt.Errorf("failed to report reviews: %w", err)
	}
	return finished, nil
}

// SetText replaces the text typed into blank index.
func (c *Controller) SetText(index int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = task.SetText(c.state, index, text)
}

// KeyUp applies focus navigation after a key was handled by blank index.
func (c *Controller) KeyUp(index int, key task.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = task.KeyUp(c.state, index, key)
}

// Focus moves the focus to blank index if it can take input.
func (c *Controller) Focus(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && index < len(c.state.Inputs) && c.state.Inputs[index].Editable() {
		c.state.Focus = index
	}
}

// Play plays the next clip of the current sentence.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.audio.Play()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	st.Inputs = append([]task.WordInput(nil), c.state.Inputs...)
	return Snapshot{
		State:           st,
		AudioGeneration: c.audioGeneration,
		Counters:        c.counters,
	}
}

// Close stops audio loading and releases all clips. Further actions
// return ErrClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.audio.StopLoading()
	return c.audio.Close()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
