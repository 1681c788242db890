package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"codeberg.org/snonux/clozerecall/internal"
)

// ErrDecode is returned for audio data that cannot be turned into a clip.
var ErrDecode = errors.New("cannot decode audio clip")

// Clip is one decoded pronunciation clip. It is owned by the Coordinator
// that appended it and released when its sentence is superseded.
type Clip struct {
	Path string // spool file handed to the player
	MIME string
	Size int
}

// Release deletes the clip's spool file.
func (c *Clip) Release() error {
	if c == nil || c.Path == "" {
		return nil
	}
	err := os.Remove(c.Path)
	c.Path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Decoder turns raw audio bytes into a playable clip.
type Decoder interface {
	Decode(ctx context.Context, sentenceID int, data []byte) (*Clip, error)
}

// SpoolDecoder sniffs the content type of raw audio bytes and writes
// recognised audio to a spool file.
type SpoolDecoder struct {
	dir string
}

// NewSpoolDecoder creates a decoder writing clips into dir. An empty dir
// uses the system temp directory.
func NewSpoolDecoder(dir string) (*SpoolDecoder, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "clozerecall-clips")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create clip spool directory: %w", err)
	}
	return &SpoolDecoder{dir: dir}, nil
}

// Decode implements Decoder.
func (d *SpoolDecoder) Decode(ctx context.Context, sentenceID int, data []byte) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrDecode)
	}

	mt := mimetype.Detect(data)
	if !isAudio(mt) {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrDecode, mt.String())
	}

	pattern := internal.ClipFilePattern(sentenceID, mt.Extension())
	f, err := os.CreateTemp(d.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create clip file: %w", err)
	}
	if err := writeClipFile(f, f.Name(), data); err != nil {
		return nil, err
	}

	return &Clip{Path: f.Name(), MIME: mt.String(), Size: len(data)}, nil
}

// writeClipFile writes data and closes w. The file at path is removed when
// either step fails so no partial clip is left in the spool directory.
func writeClipFile(w io.WriteCloser, path string, data []byte) error {
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write clip file: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close clip file: %w", err)
	}
	return nil
}

func isAudio(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return true
		}
	}
	// Ogg containers are reported as application/ogg when no codec is found.
	return mt.Is("application/ogg")
}
