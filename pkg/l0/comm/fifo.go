package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// ReplyHandler is called when a reply is received.
type ReplyHandler interface {
	HandleReply(context.Context, *Reply)
}

// HandleReplyFunc is func type of ReplyHandler.
type HandleReplyFunc func(context.Context, *Reply)

// HandleReply implements ReplyHandler.
func (f HandleReplyFunc) HandleReply(ctx context.Context, r *Reply) {
	f(ctx, r)
}

// ErrClosed indicates the FIFO has been closed.
var ErrClosed = errors.New("fifo closed")

// FIFO sends requests and drains replies over a byte stream.
type FIFO struct {
	ReadWriter io.ReadWriter
	Handler    ReplyHandler

	lock      sync.Mutex
	parser    Parser
	closed    int32
	closeOnce sync.Once
	closeErr  error

	replies uint64
	dropped uint64
}

// Stats are counters of received frames.
type Stats struct {
	Replies uint64
	Dropped uint64
}

// NewFIFO creates a FIFO.
func NewFIFO(rw io.ReadWriter) *FIFO {
	return &FIFO{ReadWriter: rw}
}

// Name implements framework.Named.
func (f *FIFO) Name() string {
	return "fifo"
}

// Send validates and writes a request. It doesn't wait for any reply.
func (f *FIFO) Send(req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if atomic.LoadInt32(&f.closed) != 0 {
		return ErrClosed
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	if glog.V(3) {
		glog.Infof("SND %v", req)
	}
	_, err := req.WriteTo(f.ReadWriter)
	return err
}

// Stats returns received frame counters.
func (f *FIFO) Stats() Stats {
	return Stats{
		Replies: atomic.LoadUint64(&f.replies),
		Dropped: atomic.LoadUint64(&f.dropped),
	}
}

// Close closes the underlying stream if it is an io.Closer. It is safe to
// call Close more than once.
func (f *FIFO) Close() error {
	f.closeOnce.Do(func() {
		atomic.StoreInt32(&f.closed, 1)
		if c, ok := f.ReadWriter.(io.Closer); ok {
			f.closeErr = c.Close()
		}
	})
	return f.closeErr
}

// Run drains the stream and dispatches replies until ctx is done or the
// stream fails. A read failure after Close is not an error.
func (f *FIFO) Run(ctx context.Context) error {
	f.parser.Reset()
	chunkCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.readLoop(subCtx, chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			for _, b := range chunk {
				f.applyParseResult(ctx, f.parser.Parse(b))
			}
		case err := <-errCh:
			if atomic.LoadInt32(&f.closed) != 0 {
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *FIFO) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := f.ReadWriter.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (f *FIFO) applyParseResult(ctx context.Context, pr ParseResult) {
	if pr.Err != nil {
		atomic.AddUint64(&f.dropped, 1)
		glog.Warningf("frame dropped: %v", pr.Err)
		return
	}
	if pr.Reply == nil {
		return
	}
	atomic.AddUint64(&f.replies, 1)
	if glog.V(3) {
		glog.Infof("RCV idx=%d value=% x millis=% x", pr.Reply.Index, pr.Reply.Value, pr.Reply.Millis)
	}
	if h := f.Handler; h != nil {
		h.HandleReply(ctx, pr.Reply)
	}
}
