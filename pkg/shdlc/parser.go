package shdlc

// Parser reassembles frames from received bytes.
type Parser struct {
	state parseState
	buf   []byte
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Wire is a complete frame including both delimiters.
	Wire []byte
	// Discarded is set when the byte or a partial frame was thrown away.
	Discarded bool
}

type parseState int

const (
	stateIdle parseState = iota // waiting for the first delimiter
	stateBody                   // collecting until stop delimiter
)

// Receiving indicates a frame has started but not completed.
func (p *Parser) Receiving() bool {
	return p.state == stateBody && len(p.buf) > 1
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state, p.buf = stateIdle, nil
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateIdle:
		if b != FrameDelimiter {
			pr.Discarded = true
			return
		}
		p.buf = append(p.buf[:0], b)
		p.state = stateBody
	case stateBody:
		if b == FrameDelimiter {
			if len(p.buf) == 1 {
				// back-to-back delimiters, the latter starts the frame.
				return
			}
			// the next frame needs its own start delimiter, bytes in
			// between are noise.
			pr.Wire = append(p.buf, b)
			p.state, p.buf = stateIdle, nil
			return
		}
		if len(p.buf) >= maxWireLen-1 {
			p.Reset()
			pr.Discarded = true
			return
		}
		p.buf = append(p.buf, b)
	}
	return
}
