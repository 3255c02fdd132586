package comm

// Parser assembles reply frames from a byte stream.
type Parser struct {
	state   parseState
	frame   []byte
	bodyLen int
}

// SyncState indicates the state of the byte stream.
type SyncState int

const (
	// SyncStateHunting means the parser is looking for a preamble.
	SyncStateHunting SyncState = iota
	// SyncStateReceiving means a frame is partially received.
	SyncStateReceiving
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State SyncState
	// Reply is set when a complete and well formed frame is received.
	Reply *Reply
	// Err is set when a complete frame is received but can't be decoded.
	// The frame is dropped.
	Err error
}

type parseState int

const (
	statePreamble0 parseState = iota // waiting for 0xff
	statePreamble1                   // waiting for 0x55
	stateLen                         // waiting for length byte
	stateBody                        // collecting body bytes
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	if p.state == statePreamble0 {
		return SyncStateHunting
	}
	return SyncStateReceiving
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state, p.frame, p.bodyLen = statePreamble0, nil, 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Reply, pr.Err = p.parseByte(b)
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (*Reply, error) {
	switch p.state {
	case statePreamble0:
		// anything else, e.g. the firmware's trailing CR LF, is skipped.
		if b == Preamble[0] {
			p.state = statePreamble1
		}
	case statePreamble1:
		switch b {
		case Preamble[1]:
			p.state = stateLen
		case Preamble[0]:
			// stay, 0xff 0xff 0x55 is still a valid start.
		default:
			p.state = statePreamble0
		}
	case stateLen:
		p.bodyLen = int(b)
		p.frame = make([]byte, 0, headerLen+p.bodyLen)
		p.frame = append(p.frame, Preamble[0], Preamble[1], b)
		if p.bodyLen == 0 {
			return p.frameReady()
		}
		p.state = stateBody
	case stateBody:
		p.frame = append(p.frame, b)
		if len(p.frame)-headerLen >= p.bodyLen {
			return p.frameReady()
		}
	}
	return nil, nil
}

func (p *Parser) frameReady() (*Reply, error) {
	frame := p.frame
	p.Reset()
	return DecodeReply(frame)
}
