package stream

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Frame is one encoded camera frame.
type Frame struct {
	Data      []byte // JPEG-encoded image
	Seq       uint64
	Timestamp time.Time
}

// FrameSource produces encoded frames. Next blocks until the next frame
// is due, pacing callers to the source's frame rate.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Alive() bool
}

var _ FrameSource = (*SyntheticSource)(nil)

// SyntheticSource renders a moving test pattern. It stands in for real
// camera hardware in development and tests; anything that encodes JPEG
// frames can replace it.
type SyntheticSource struct {
	width   int
	height  int
	limiter *rate.Limiter

	mu  sync.Mutex
	seq uint64
}

// NewSyntheticSource creates a test-pattern source at the given
// resolution and frame rate.
func NewSyntheticSource(width, height, fps int) *SyntheticSource {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	if fps <= 0 {
		fps = 10
	}
	return &SyntheticSource{
		width:   width,
		height:  height,
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
	}
}

// Next renders and encodes the next frame, paced to the frame rate.
func (s *SyntheticSource) Next(ctx context.Context) (Frame, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	img := s.render(seq)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return Frame{}, err
	}

	return Frame{
		Data:      buf.Bytes(),
		Seq:       seq,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Alive always reports true: the synthetic pattern cannot fail the way
// camera hardware can.
func (s *SyntheticSource) Alive() bool {
	return true
}

// render draws a gradient background with a vertical bar that sweeps
// across the frame, so motion is visible in a live stream.
func (s *SyntheticSource) render(seq uint64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))

	barX := int(seq*8) % s.width
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.RGBA{
				R: uint8(x * 255 / s.width),
				G: uint8(y * 255 / s.height),
				B: uint8(seq),
				A: 255,
			}
			if x >= barX && x < barX+12 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
