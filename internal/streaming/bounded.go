package streaming

import (
	"io"
	"io/fs"
	"sync"

	"vidserve/internal/logging"
)

// BoundedReadCloser caps a byte source at a fixed window and guarantees the
// source is released exactly once, however the consumer finishes: full drain,
// early abandonment, or a mid-stream read error.
type BoundedReadCloser struct {
	src       io.ReadCloser
	remaining int64

	once     sync.Once
	closeErr error
	closed   bool
}

// NewBounded wraps src with a hard cap of limit bytes. A negative limit is
// treated as zero.
func NewBounded(src io.ReadCloser, limit int64) *BoundedReadCloser {
	if limit < 0 {
		limit = 0
	}
	return &BoundedReadCloser{src: src, remaining: limit}
}

// Read returns at most the remaining window from the source. Once the window
// is exhausted the source is released and subsequent calls return io.EOF.
// A source that runs dry before the window is delivered is an abort, not a
// quiet truncation: the consumer sees io.ErrUnexpectedEOF.
func (b *BoundedReadCloser) Read(p []byte) (int, error) {
	if b.closed {
		if b.remaining > 0 {
			return 0, fs.ErrClosed
		}
		return 0, io.EOF
	}

	if b.remaining <= 0 {
		b.release()
		return 0, io.EOF
	}

	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}

	n, err := b.src.Read(p)
	if n > 0 {
		b.remaining -= int64(n)
	}

	if err != nil {
		b.release()
		if err == io.EOF && b.remaining > 0 {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}

	if b.remaining == 0 {
		b.release()
	}

	return n, nil
}

// Remaining returns the number of bytes still promised to the consumer.
func (b *BoundedReadCloser) Remaining() int64 {
	return b.remaining
}

// Close releases the underlying source. It is safe to call any number of
// times and after the window has been drained; the source itself is only
// closed once.
func (b *BoundedReadCloser) Close() error {
	b.release()
	return b.closeErr
}

func (b *BoundedReadCloser) release() {
	b.once.Do(func() {
		b.closed = true
		b.closeErr = b.src.Close()
		if b.closeErr != nil {
			logging.Warn("failed to close bounded stream source: %v", b.closeErr)
		}
	})
	b.closed = true
}


