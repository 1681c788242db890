package playback

import (
	"context"
	"io"
	"log"
	"sync"
)

// Source delivers the raw audio of a sentence. The returned channel yields
// one buffer per clip and is closed when loading has finished or was
// cancelled. CancelSentenceAudio is advisory.
type Source interface {
	LoadSentenceAudio(ctx context.Context, sentenceID int, sentence string) (<-chan []byte, error)
	CancelSentenceAudio()
}

// ClipReady is emitted whenever a clip of the current sentence is appended.
type ClipReady struct {
	Generation uint64
	SentenceID int
	Index      int
	Count      int
}

type loadRequest struct {
	generation uint64
	sentenceID int
	sentence   string
}

type activeLoad struct {
	loadRequest
	cancel    context.CancelFunc
	cancelled bool
}

// Coordinator fetches the clips of the current sentence. Every call to
// LoadForSentence starts a new generation; clips are only accepted for the
// newest generation that has not been stopped.
type Coordinator struct {
	ctx     context.Context
	source  Source
	decoder Decoder
	player  Player
	logger  *log.Logger

	mu          sync.Mutex
	generation  uint64
	sealed      uint64 // generations <= sealed accept no more clips
	clips       []*Clip
	playIndex   int
	inFlight    *activeLoad
	pending     *loadRequest
	onClipReady func(ClipReady)
	wg          sync.WaitGroup
}

// NewCoordinator creates a coordinator. ctx bounds all loads and playbacks
// it starts. A nil logger discards log output.
func NewCoordinator(ctx context.Context, source Source, decoder Decoder, player Player, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Coordinator{
		ctx:       ctx,
		source:    source,
		decoder:   decoder,
		player:    player,
		logger:    logger,
		playIndex: -1,
	}
}

// SetOnClipReady registers the clip-ready callback. It runs on the loading
// goroutine without the coordinator lock held.
func (c *Coordinator) SetOnClipReady(fn func(ClipReady)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClipReady = fn
}

// LoadForSentence drops the clips of the previous sentence and requests the
// audio of this one. If a load is still in flight it is cancelled and the
// new load starts once the old one has wound down.
func (c *Coordinator) LoadForSentence(sentenceID int, sentence string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.releaseClipsLocked()
	c.playIndex = -1

	req := loadRequest{generation: c.generation, sentenceID: sentenceID, sentence: sentence}
	if c.inFlight != nil {
		c.cancelInFlightLocked()
		c.pending = &req
		c.logger.Printf("audio: sentence %d waits for generation %d to wind down", sentenceID, c.inFlight.generation)
		return req.generation
	}

	c.startLocked(req)
	return req.generation
}

// StopLoading cancels the outstanding load without touching the current
// clips. Clips that still arrive afterwards are discarded.
func (c *Coordinator) StopLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sealed = c.generation
	c.pending = nil
	if c.inFlight != nil {
		c.cancelInFlightLocked()
	}
}

// Play plays the next clip, wrapping around after the last one. It does
// nothing when no clip is loaded.
func (c *Coordinator) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.clips) == 0 {
		return nil
	}
	c.playIndex = (c.playIndex + 1) % len(c.clips)
	return c.player.Play(c.ctx, c.clips[c.playIndex])
}

// Close stops loading, waits for the loading goroutine to exit and releases
// every clip.
func (c *Coordinator) Close() error {
	c.StopLoading()
	c.wg.Wait()

	c.mu.Lock()
	c.releaseClipsLocked()
	c.playIndex = -1
	c.mu.Unlock()

	return c.player.Stop()
}

// Generation returns the generation of the current sentence.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// ClipCount returns the number of clips available for playback.
func (c *Coordinator) ClipCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clips)
}

// HasAudio reports whether at least one clip can be played.
func (c *Coordinator) HasAudio() bool {
	return c.ClipCount() > 0
}

// LoadInFlight reports whether an audio request is outstanding.
func (c *Coordinator) LoadInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight != nil
}

// Clips returns a copy of the current clip list.
func (c *Coordinator) Clips() []*Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Clip(nil), c.clips...)
}

func (c *Coordinator) startLocked(req loadRequest) {
	ctx, cancel := context.WithCancel(c.ctx)
	load := &activeLoad{
		loadRequest: req,
		cancel:      cancel,
	}
	c.inFlight = load

	c.logger.Printf("audio: loading sentence %d (generation %d)", req.sentenceID, req.generation)

	c.wg.Add(1)
	go c.run(ctx, load)
}

func (c *Coordinator) cancelInFlightLocked() {
	if c.inFlight.cancelled {
		return
	}
	c.inFlight.cancelled = true
	c.source.CancelSentenceAudio()
	c.inFlight.cancel()
	c.logger.Printf("audio: cancelling generation %d", c.inFlight.generation)
}

func (c *Coordinator) run(ctx context.Context, load *activeLoad) {
	defer c.wg.Done()
	defer c.finish(load)

	buffers, err := c.source.LoadSentenceAudio(ctx, load.sentenceID, load.sentence)
	if err != nil {
		c.logger.Printf("audio: loading sentence %d failed: %v", load.sentenceID, err)
		return
	}

	for data := range buffers {
		if !c.accepts(load.generation) {
			continue
		}

		clip, err := c.decoder.Decode(ctx, load.sentenceID, data)
		if err != nil {
			c.logger.Printf("audio: skipping clip of sentence %d: %v", load.sentenceID, err)
			continue
		}

		c.appendClip(load, clip)
	}
}

func (c *Coordinator) accepts(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acceptsLocked(generation)
}

func (c *Coordinator) acceptsLocked(generation uint64) bool {
	return generation == c.generation && generation > c.sealed
}

func (c *Coordinator) appendClip(load *activeLoad, clip *Clip) {
	c.mu.Lock()
	if !c.acceptsLocked(load.generation) {
		c.mu.Unlock()
		c.logger.Printf("audio: dropping stale clip of generation %d", load.generation)
		_ = clip.Release()
		return
	}

	c.clips = append(c.clips, clip)
	ready := ClipReady{
		Generation: load.generation,
		SentenceID: load.sentenceID,
		Index:      len(c.clips) - 1,
		Count:      len(c.clips),
	}
	notify := c.onClipReady
	c.mu.Unlock()

	if notify != nil {
		notify(ready)
	}
}

// finish runs when a load has fully wound down and starts the deferred
// load, if it is still the newest one.
func (c *Coordinator) finish(load *activeLoad) {
	load.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight == load {
		c.inFlight = nil
	}

	if c.pending == nil {
		return
	}
	req := *c.pending
	c.pending = nil
	if c.acceptsLocked(req.generation) {
		c.startLocked(req)
	}
}

func (c *Coordinator) releaseClipsLocked() {
	for _, clip := range c.clips {
		if err := clip.Release(); err != nil {
			c.logger.Printf("audio: failed to release clip: %v", err)
		}
	}
	c.clips = nil
}
