package sim

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/fermigas/Autonomy/pkg/l0/comm"
)

// MotorCommand is a speed received by an encoder motor.
type MotorCommand struct {
	Slot  comm.Slot
	Speed int16
}

// Orion emulates the board firmware behind a serial stream. Requests written
// to it are answered with reply frames to be read back, the way the real
// board answers over the wire. A robot with two wheels and range sensors
// moves in a World following the motor commands.
type Orion struct {
	World  *World
	Config Config

	lock      sync.Mutex
	inbuf     []byte
	pose      Pose2D
	wheels    map[comm.Slot]int16
	lastMove  time.Time
	start     time.Time
	lastMilli float32
	fixed     map[byte]float64
	muted     map[byte]bool
	corrupt   int
	motorLog  []MotorCommand
	display   float32

	out     chan []byte
	pending []byte
	done    chan struct{}
	once    sync.Once

	now func() time.Time
}

// NewOrion creates a board in world w with the robot at pose.
func NewOrion(w *World, conf Config, pose Pose2D) *Orion {
	o := &Orion{
		World:  w,
		Config: conf,
		pose:   pose,
		wheels: make(map[comm.Slot]int16),
		fixed:  make(map[byte]float64),
		muted:  make(map[byte]bool),
		out:    make(chan []byte, 256),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	o.start = o.now()
	o.lastMove = o.start
	return o
}

// SetRange makes the sensor on port always report cm.
func (o *Orion) SetRange(port byte, cm float64) {
	o.lock.Lock()
	o.fixed[port] = cm
	o.lock.Unlock()
}

// Mute stops or resumes replies to requests for port.
func (o *Orion) Mute(port byte, muted bool) {
	o.lock.Lock()
	o.muted[port] = muted
	o.lock.Unlock()
}

// CorruptNext makes the next n replies carry a wrong length byte.
func (o *Orion) CorruptNext(n int) {
	o.lock.Lock()
	o.corrupt += n
	o.lock.Unlock()
}

// MotorLog returns the motor commands received so far.
func (o *Orion) MotorLog() []MotorCommand {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]MotorCommand(nil), o.motorLog...)
}

// Display returns the value shown on the seven segment display.
func (o *Orion) Display() float32 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.display
}

// Pose returns the current pose of the robot.
func (o *Orion) Pose() Pose2D {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.move(o.now())
	return o.pose
}

// Write implements io.Writer. Incomplete frames are kept until the rest
// arrives and bytes before a preamble are skipped.
func (o *Orion) Write(p []byte) (int, error) {
	select {
	case <-o.done:
		return 0, io.ErrClosedPipe
	default:
	}
	o.lock.Lock()
	defer o.lock.Unlock()
	o.inbuf = append(o.inbuf, p...)
	for {
		start := indexPreamble(o.inbuf)
		if start < 0 {
			o.inbuf = o.inbuf[:0]
			break
		}
		o.inbuf = o.inbuf[start:]
		if len(o.inbuf) < 3 {
			break
		}
		size := 3 + int(o.inbuf[2])
		if len(o.inbuf) < size {
			break
		}
		frame := o.inbuf[:size]
		o.inbuf = o.inbuf[size:]
		req, err := comm.DecodeRequest(frame)
		if err != nil {
			glog.Warningf("sim: bad request % x: %v", frame, err)
			continue
		}
		o.handle(req)
	}
	return len(p), nil
}

// Read implements io.Reader. It blocks until a reply is available or the
// board is closed.
func (o *Orion) Read(p []byte) (int, error) {
	if len(o.pending) == 0 {
		select {
		case b := <-o.out:
			o.pending = b
		case <-o.done:
			return 0, io.EOF
		}
	}
	n := copy(p, o.pending)
	o.pending = o.pending[n:]
	return n, nil
}

// Close implements io.Closer.
func (o *Orion) Close() error {
	o.once.Do(func() { close(o.done) })
	return nil
}

func (o *Orion) handle(req *comm.Request) {
	now := o.now()
	o.move(now)
	switch req.Action {
	case comm.ActionGet:
		o.answer(req, now)
	case comm.ActionRun:
		o.run(req)
	default:
		glog.V(2).Infof("sim: ignored %v", req)
	}
}

func (o *Orion) run(req *comm.Request) {
	switch req.Kind {
	case comm.KindEncoderMotor:
		if len(req.Data) < 2 {
			return
		}
		speed := int16(binary.LittleEndian.Uint16(req.Data))
		o.wheels[req.Slot] = speed
		o.motorLog = append(o.motorLog, MotorCommand{Slot: req.Slot, Speed: speed})
	case comm.KindSevenSegment:
		if v, err := comm.Float32("display", req.Data); err == nil {
			o.display = v
		}
	}
}

func (o *Orion) answer(req *comm.Request, now time.Time) {
	if o.muted[req.Port] {
		return
	}
	var value float64
	if req.Kind == comm.KindUltrasonic {
		value = o.rangeAt(req.Port)
	}
	// millis must move forward with every reply.
	millis := float32(now.Sub(o.start).Seconds() * 1000)
	if millis <= o.lastMilli {
		millis = o.lastMilli + 1
	}
	o.lastMilli = millis
	reply := &comm.Reply{
		Index:  req.Index,
		Value:  comm.AppendFloat32(nil, float32(value)),
		Millis: comm.AppendFloat32(nil, millis),
	}
	frame := reply.Bytes()
	if o.corrupt > 0 {
		o.corrupt--
		frame[2] -= 2
	}
	frame = append(frame, '\r', '\n')
	select {
	case o.out <- frame:
	default:
		glog.Warningf("sim: reply to idx=%d dropped, reader too slow", req.Index)
	}
}

func (o *Orion) rangeAt(port byte) float64 {
	if cm, ok := o.fixed[port]; ok {
		return cm
	}
	mount, ok := o.Config.Mounts[port]
	if !ok || o.World == nil {
		return 0
	}
	pose := o.pose
	pose.Heading = pose.Heading.Add(mount)
	return o.World.Range(pose)
}

// move advances the robot to now. The wheels face each other, so the left
// wheel drives forward on positive speeds and the right one on negative.
func (o *Orion) move(now time.Time) {
	dt := now.Sub(o.lastMove).Seconds()
	o.lastMove = now
	if dt <= 0 || o.World == nil {
		return
	}
	vl := float64(o.wheels[o.Config.LeftSlot]) * o.Config.SpeedScale
	vr := -float64(o.wheels[o.Config.RightSlot]) * o.Config.SpeedScale
	v, w := (vl+vr)/2, (vr-vl)/o.Config.WheelBase
	if v == 0 && w == 0 {
		return
	}
	const step = 0.01
	for t := 0.0; t < dt; t += step {
		d := math.Min(step, dt-t)
		next := o.pose
		next.Heading = o.pose.Heading.AddRadians(w * d)
		next.Pos2D = o.pose.Pos2D.Add(o.pose.Heading.AddRadians(w * d / 2).Project(v * d))
		if o.World.Blocked(next.Pos2D) {
			// bumped, only the rotation applies.
			next.Pos2D = o.pose.Pos2D
		}
		o.pose = next
	}
}

func indexPreamble(b []byte) int {
	for n := 0; n+1 < len(b); n++ {
		if b[n] == comm.Preamble[0] && b[n+1] == comm.Preamble[1] {
			return n
		}
	}
	if len(b) > 0 && b[len(b)-1] == comm.Preamble[0] {
		return len(b) - 1
	}
	return -1
}
