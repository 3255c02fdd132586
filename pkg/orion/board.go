package orion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

// Port ids of the board.
const (
	Port1  byte = 0x01
	Port2  byte = 0x02
	Port3  byte = 0x03
	Port4  byte = 0x04
	Port5  byte = 0x05
	Port6  byte = 0x06
	Port7  byte = 0x07
	Port8  byte = 0x08
	PortM1 byte = 0x09
	PortM2 byte = 0x0a
)

// PortIDs lists all ports of the board.
var PortIDs = []byte{Port1, Port2, Port3, Port4, Port5, Port6, Port7, Port8, PortM1, PortM2}

// Sender sends requests without waiting for replies.
type Sender interface {
	Send(*comm.Request) error
}

// Board is the registry of ports and the devices attached to them.
type Board struct {
	Sender Sender

	lock      sync.RWMutex
	ports     map[byte]*Port
	nextIndex int
}

// Port is a logical endpoint on the board owning at most one device.
type Port struct {
	id     byte
	board  *Board
	device Device
}

// NewBoard creates a board with all its ports empty.
func NewBoard(sender Sender) *Board {
	b := &Board{Sender: sender, ports: make(map[byte]*Port, len(PortIDs))}
	for _, id := range PortIDs {
		b.ports[id] = &Port{id: id, board: b}
	}
	return b
}

// Port returns the port with id, or nil if the board has no such port.
func (b *Board) Port(id byte) *Port {
	return b.ports[id]
}

// Attach attaches a device to a port, replacing the current occupant.
func (b *Board) Attach(portID byte, dev Device) error {
	p := b.Port(portID)
	if p == nil {
		return fmt.Errorf("no port %#04x on board", portID)
	}
	return p.Attach(dev)
}

// MustAttach attaches a device and panics on error.
func (b *Board) MustAttach(portID byte, dev Device) {
	if err := b.Attach(portID, dev); err != nil {
		panic(err)
	}
}

// Devices returns attached devices ordered by index.
func (b *Board) Devices() []Device {
	b.lock.RLock()
	devs := make([]Device, 0, len(b.ports))
	for _, p := range b.ports {
		if p.device != nil {
			devs = append(devs, p.device)
		}
	}
	b.lock.RUnlock()
	sort.Slice(devs, func(i, j int) bool { return devs[i].Index() < devs[j].Index() })
	return devs
}

// DeviceAt returns the device whose index matches, or nil.
func (b *Board) DeviceAt(index byte) Device {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for _, p := range b.ports {
		if p.device != nil && p.device.Index() == index {
			return p.device
		}
	}
	return nil
}

type replyApplier interface {
	applyReply(*comm.Reply) error
}

// RouteReply forwards a reply to the device it addresses.
func (b *Board) RouteReply(r *comm.Reply) error {
	dev := b.DeviceAt(r.Index)
	if dev == nil {
		return fmt.Errorf("%w: index %d", ErrUnknownReplyTarget, r.Index)
	}
	applier, ok := dev.(replyApplier)
	if !ok {
		return unsupported("reply", dev)
	}
	return applier.applyReply(r)
}

// HandleReply implements comm.ReplyHandler. Routing failures are logged and
// never stop the transport.
func (b *Board) HandleReply(ctx context.Context, r *comm.Reply) {
	err := b.RouteReply(r)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownReplyTarget):
		glog.V(2).Infof("reply discarded: %v", err)
	default:
		glog.Errorf("reply idx=%d rejected: %v", r.Index, err)
	}
}

func (b *Board) send(req *comm.Request) error {
	if b.Sender == nil {
		return ErrNoSender
	}
	return b.Sender.Send(req)
}

// ID returns the port id.
func (p *Port) ID() byte {
	return p.id
}

// Device returns the attached device or nil.
func (p *Port) Device() Device {
	p.board.lock.RLock()
	defer p.board.lock.RUnlock()
	return p.device
}

// Attach binds dev to the port. The previous occupant, if any, is detached
// and no longer receives replies. A device can be attached only once.
func (p *Port) Attach(dev Device) error {
	d := dev.base()
	if d.kind.Slotted() {
		if !d.slot.IsValid() {
			return fmt.Errorf("%v requires a valid slot, got %d", d.kind, d.slot)
		}
	} else if d.slot != comm.SlotNone {
		return fmt.Errorf("%v does not take a slot", d.kind)
	}

	b := p.board
	b.lock.Lock()
	defer b.lock.Unlock()
	if cur := d.Port(); cur != nil {
		return fmt.Errorf("%v already attached to port %#04x", d.kind, cur.id)
	}
	if b.nextIndex > 0xff {
		return fmt.Errorf("out of device indexes")
	}
	if old := p.device; old != nil {
		old.base().bind(nil, old.Index())
		glog.V(1).Infof("port %#04x: %v replaced by %v", p.id, old.Kind(), d.kind)
	}
	d.bind(p, byte(b.nextIndex))
	b.nextIndex++
	p.device = dev
	return nil
}
