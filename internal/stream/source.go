package stream

import (
	"errors"
	"image"
	"time"
)

// ErrNoFrame signals a transient acquisition miss: no frame was ready this
// tick. The loop skips the iteration and retries; it is never fatal.
var ErrNoFrame = errors.New("no frame available")

// Frame is one captured image with tracking metadata. A frame is owned
// exclusively by the pipeline stage currently processing it.
type Frame struct {
	Image     image.Image
	Index     int64
	Timestamp time.Time
}

// FrameSource is the acquisition boundary of the processing loop. The loop
// is the sole owner of a source for its entire running lifetime.
type FrameSource interface {
	// Next returns the next frame, ErrNoFrame on a transient miss, or any
	// other error when acquisition has failed unrecoverably.
	Next() (Frame, error)

	// Close releases the capture resource. Called exactly once by the loop
	// after the loop body has exited.
	Close() error
}

// SourceOpener acquires a capture resource. It is invoked once when a runner
// is constructed; re-entering Running after a stop requires a fresh open.
type SourceOpener func() (FrameSource, error)
