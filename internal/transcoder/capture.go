package transcoder

import "sync"

// defaultCaptureBytes bounds how much merged encoder output is retained for
// diagnostics.
const defaultCaptureBytes = 16 * 1024

// tailBuffer keeps the final limit bytes written to it. FFmpeg prints its
// failure reason last, so the tail is the part worth keeping. Safe for
// concurrent writes since stdout and stderr share it.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	limit     int
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = defaultCaptureBytes
	}
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
		t.truncated = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.truncated {
		return "...(truncated)..." + string(t.buf)
	}
	return string(t.buf)
}


