package upload

import "io"

// ProgressReader wraps a reader of known length and emits 0-100 integer
// percentages on a channel as bytes flow through it. The channel is closed
// once the underlying reader returns EOF or an error, so callers can range
// over it and compose it with context cancellation on the request itself.
type ProgressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	events chan int
	closed bool
}

// NewProgressReader returns the wrapping reader and the percentage stream.
// A total of zero disables reporting (the channel closes immediately on EOF
// without intermediate events).
func NewProgressReader(r io.Reader, total int64) (*ProgressReader, <-chan int) {
	events := make(chan int, 8)
	return &ProgressReader{r: r, total: total, last: -1, events: events}, events
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.emit()
	}
	// Reads past EOF are legal and must not close the channel twice.
	if err != nil && !p.closed {
		p.closed = true
		close(p.events)
	}
	return n, err
}

func (p *ProgressReader) emit() {
	if p.total <= 0 {
		return
	}
	pct := int(p.read * 100 / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct == p.last {
		return
	}
	p.last = pct
	// Drop events rather than block the upload when nobody is draining.
	select {
	case p.events <- pct:
	default:
	}
}
