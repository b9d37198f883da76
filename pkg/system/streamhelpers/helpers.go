package streamhelpers

import (
	"sync"
)

// HeadBuffer keeps the first Limit bytes written to it and silently drops the rest.
// Writes never fail so a chatty process can not stall on its stderr.
type HeadBuffer struct {
	Limit int

	mu  sync.Mutex
	buf []byte
}

func NewHeadBuffer(limit int) *HeadBuffer {
	return &HeadBuffer{Limit: limit}
}

func (h *HeadBuffer) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.Limit - len(h.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		h.buf = append(h.buf, p[:room]...)
	}

	return len(p), nil
}

func (h *HeadBuffer) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.buf)
}
