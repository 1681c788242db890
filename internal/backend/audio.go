package backend

import (
	"context"
	"errors"

	"codeberg.org/snonux/clozerecall/internal/audio"
)

// LoadSentenceAudio streams the clips of a sentence. The channel is closed
// once the provider is done or the load was cancelled. Starting a load
// cancels the previous one.
func (s *Service) LoadSentenceAudio(ctx context.Context, sentenceID int, sentence string) (<-chan []byte, error) {
	if s.provider == nil {
		return nil, audio.ErrNoAudio
	}

	s.audioMu.Lock()
	if s.audioCancel != nil {
		s.audioCancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.audioCancel = cancel
	s.audioSeq++
	seq := s.audioSeq
	s.audioMu.Unlock()

	clips := make(chan []byte)
	go func() {
		defer close(clips)
		defer s.clearAudio(seq)

		err := s.provider.FetchClips(loadCtx, sentenceID, sentence, func(data []byte) error {
			select {
			case clips <- data:
				return nil
			case <-loadCtx.Done():
				return loadCtx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("Audio of sentence %d via %s: %v", sentenceID, s.provider.Name(), err)
		}
	}()

	return clips, nil
}

// CancelSentenceAudio cancels the load in flight, if any.
func (s *Service) CancelSentenceAudio() {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	if s.audioCancel != nil {
		s.audioCancel()
		s.audioCancel = nil
	}
}

func (s *Service) clearAudio(seq uint64) {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	if s.audioSeq == seq && s.audioCancel != nil {
		s.audioCancel()
		s.audioCancel = nil
	}
}
