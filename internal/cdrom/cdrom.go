// Package cdrom implements the CD-ROM controller's 4-byte index-switched
// register window and the command FSM that drives it. Disc-image reading
// itself is delegated to an external Backend; this package models the
// register handshake, response/data FIFOs, and interrupt flags.
package cdrom

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bus"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

const (
	parameterCapacity = 16
	responseCapacity  = 16
	dataCapacity       = 2352 * 8
)

// Backend supplies sector data for read-family commands; with a nil
// Backend those commands finish without delivering any sector data.
type Backend interface {
	ReadSector(lba uint32) ([]byte, error)
}

// Interrupt flag values (INT0-INT5), matching the documented low-5-bit
// encoding of the interrupt_flag register.
const (
	IntNone              = 0
	Int1DataReady        = 1
	Int2Complete         = 2
	Int3Acknowledge      = 3
	Int4DataEnd          = 4
	Int5Error            = 5
)

// ErrCommandBusy reports a command register write while a previous
// command has not yet been acknowledged (command_index still set).
var ErrCommandBusy = errors.New("cdrom: command register written before previous command acknowledged")

// ErrUnknownCommand reports a command_index with no modeled handler.
var ErrUnknownCommand = errors.New("cdrom: command not implemented")

type handlerFunc func(c *Controller, iteration int) (finished bool, err error)

// lengthFunc returns how many parameter bytes must be queued before the
// handler for a given iteration can run.
type lengthFunc func(iteration int) int

type commandEntry struct {
	length  lengthFunc
	handler handlerFunc
}

var commandTable = map[uint8]commandEntry{
	0x01: {length: constLength(0), handler: cmdGetstat},
	0x02: {length: constLength(3), handler: cmdSetloc},
	0x06: {length: constLength(0), handler: cmdReadN},
	0x09: {length: constLength(0), handler: cmdPause},
	0x0E: {length: constLength(1), handler: cmdSetmode},
	0x15: {length: constLength(0), handler: cmdSeekL},
	0x19: {length: constLength(1), handler: cmdTest},
	0x1A: {length: constLength(0), handler: cmdGetID},
}

func constLength(n int) lengthFunc { return func(int) int { return n } }

// Controller holds the register window, FIFOs, drive status, and the
// (command_index, iteration) command FSM state.
type Controller struct {
	indexReg uint8 // low 2 bits of the 4-byte window's index register

	parameter *bus.FIFO[uint8]
	response  *bus.FIFO[uint8]
	data      *bus.FIFO[uint8]

	commandIndex     int // -1 means no command in flight
	commandIteration int

	interruptFlag uint8
	interruptEnable uint8

	statusBusy    bool
	statusMotorOn bool
	seekTarget    uint32
	driveMode     uint8

	backend Backend
	intc    *intc.Controller
}

func New(ic *intc.Controller, backend Backend) *Controller {
	return &Controller{
		parameter:     bus.NewFIFO[uint8](parameterCapacity),
		response:      bus.NewFIFO[uint8](responseCapacity),
		data:          bus.NewFIFO[uint8](dataCapacity),
		commandIndex:  -1,
		statusMotorOn: true,
		intc:          ic,
		backend:       backend,
	}
}

// ReadIndexStatus reads register 0 (index/status byte): low 2 bits are
// the current index, plus the documented FIFO-readiness flags.
func (c *Controller) ReadIndexStatus() uint8 {
	v := c.indexReg & 0x3
	if !c.parameter.IsFull() {
		v |= 1 << 4
	}
	if !c.response.IsEmpty() {
		v |= 1 << 5
	}
	if !c.data.IsEmpty() {
		v |= 1 << 6
	}
	if c.statusBusy {
		v |= 1 << 7
	}
	return v
}

// WriteIndexStatus writes register 0 (selects the active index, 0-3).
func (c *Controller) WriteIndexStatus(v uint8) { c.indexReg = v & 0x3 }

// ReadRegister/WriteRegister implement the 4-byte index-switched window:
// the meaning of offsets 1-3 depends on the current index selected via
// offset 0. Grounded on the register handshake in the CD-ROM controller's
// acknowledge-on-write-with-latch pattern.
func (c *Controller) ReadRegister(offset uint32) (uint8, error) {
	switch offset {
	case 0:
		return c.ReadIndexStatus(), nil
	case 1:
		return c.response.ReadOne()
	case 2:
		return c.data.ReadOne()
	case 3:
		switch c.indexReg {
		case 0, 2:
			return c.interruptEnable, nil
		default:
			return c.interruptFlag | 0xE0, nil
		}
	default:
		return 0, fmt.Errorf("cdrom: register offset %d out of range", offset)
	}
}

func (c *Controller) WriteRegister(offset uint32, v uint8) error {
	switch offset {
	case 0:
		c.WriteIndexStatus(v)
		return nil
	case 1:
		switch c.indexReg {
		case 0:
			return c.writeCommand(v)
		default:
			return nil
		}
	case 2:
		switch c.indexReg {
		case 0:
			return c.parameter.WriteOne(v)
		default:
			return nil
		}
	case 3:
		switch c.indexReg {
		case 1:
			return c.writeInterruptFlag(v)
		case 0:
			c.interruptEnable = v & 0x1F
			return nil
		default:
			return nil
		}
	default:
		return fmt.Errorf("cdrom: register offset %d out of range", offset)
	}
}

func (c *Controller) writeCommand(v uint8) error {
	if c.commandIndex != -1 {
		return ErrCommandBusy
	}
	c.commandIndex = int(v)
	c.commandIteration = 0
	return nil
}

// writeInterruptFlag implements write-1-to-clear over the low 5 bits.
func (c *Controller) writeInterruptFlag(v uint8) error {
	ack := v & 0x1F
	c.interruptFlag &^= ack
	return nil
}

// Tick runs the command FSM one step if a command is in flight and the
// required parameter bytes have arrived.
func (c *Controller) Tick() error {
	if c.commandIndex == -1 {
		return nil
	}

	entry, ok := commandTable[uint8(c.commandIndex)]
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, c.commandIndex)
	}

	need := entry.length(c.commandIteration)
	if c.parameter.ReadAvailable() < need {
		return nil
	}

	finished, err := entry.handler(c, c.commandIteration)
	if err != nil {
		return err
	}

	if finished {
		slog.Debug("cdrom command finished", "command", c.commandIndex)
		c.commandIndex = -1
		c.commandIteration = 0
	} else {
		c.commandIteration++
	}
	return nil
}

// raiseInterrupt sets the low-5-bit interrupt_index (INT1-INT5 encoding)
// and asserts the INTC CDROM line whenever the new flag is enabled. It
// overwrites any interrupt still pending; it does not wait for the
// previous one to be acknowledged.
func (c *Controller) raiseInterrupt(kind uint8) {
	c.interruptFlag = kind & 0x1F
	if c.interruptEnable&c.interruptFlag != 0 {
		c.intc.Assert(addr.IRQCDROM)
	}
}

func (c *Controller) popParams(n int) []uint8 {
	out := make([]uint8, 0, n)
	for i := 0; i < n; i++ {
		v, err := c.parameter.ReadOne()
		if err != nil {
			break
		}
		out = append(out, v)
	}
	return out
}

// cmdGetstat (0x01): no parameters, single response byte reflecting
// drive status, INT3.
func cmdGetstat(c *Controller, _ int) (bool, error) {
	var stat uint8
	if c.statusMotorOn {
		stat |= 1 << 1
	}
	if c.statusBusy {
		stat |= 1 << 4
	}
	_ = c.response.WriteOne(stat)
	c.raiseInterrupt(Int3Acknowledge)
	return true, nil
}

// cmdSetloc (0x02): 3 BCD parameter bytes (minute/second/sector), INT3.
func cmdSetloc(c *Controller, _ int) (bool, error) {
	p := c.popParams(3)
	if len(p) == 3 {
		c.seekTarget = uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
	}
	_ = c.response.WriteOne(0)
	c.raiseInterrupt(Int3Acknowledge)
	return true, nil
}

// cmdReadN (0x06): starts streaming read; first iteration acknowledges
// with INT3, subsequent ticks would emit INT1+sector data via a real
// streaming loop, modeled here as a single synchronous sector emission
// when a Backend is wired.
func cmdReadN(c *Controller, iteration int) (bool, error) {
	if iteration == 0 {
		c.statusBusy = true
		_ = c.response.WriteOne(0)
		c.raiseInterrupt(Int3Acknowledge)
		return false, nil
	}

	if c.backend == nil {
		c.statusBusy = false
		return true, nil
	}
	sector, err := c.backend.ReadSector(c.seekTarget)
	if err != nil {
		c.raiseInterrupt(Int5Error)
		return true, err
	}
	for _, b := range sector {
		_ = c.data.WriteOne(b)
	}
	c.raiseInterrupt(Int1DataReady)
	c.statusBusy = false
	return true, nil
}

// cmdPause (0x09): two-phase acknowledge, INT3 then INT2.
func cmdPause(c *Controller, iteration int) (bool, error) {
	if iteration == 0 {
		_ = c.response.WriteOne(0)
		c.raiseInterrupt(Int3Acknowledge)
		return false, nil
	}
	c.statusBusy = false
	_ = c.response.WriteOne(0)
	c.raiseInterrupt(Int2Complete)
	return true, nil
}

// cmdSetmode (0x0E): one parameter byte, no response/interrupt beyond
// the mode register latch.
func cmdSetmode(c *Controller, _ int) (bool, error) {
	p := c.popParams(1)
	if len(p) == 1 {
		c.driveMode = p[0]
	}
	return true, nil
}

// cmdSeekL (0x15): two-phase like Pause, seeks to the SetLoc target.
func cmdSeekL(c *Controller, iteration int) (bool, error) {
	if iteration == 0 {
		c.statusBusy = true
		_ = c.response.WriteOne(0)
		c.raiseInterrupt(Int3Acknowledge)
		return false, nil
	}
	c.statusBusy = false
	_ = c.response.WriteOne(0)
	c.raiseInterrupt(Int2Complete)
	return true, nil
}

// cmdTest (0x19): one sub-function parameter byte; only the version-
// query sub-function (0x20) is modeled, matching a BIOS boot probe.
func cmdTest(c *Controller, _ int) (bool, error) {
	p := c.popParams(1)
	sub := uint8(0)
	if len(p) == 1 {
		sub = p[0]
	}
	if sub == 0x20 {
		_ = c.response.WriteOne(0x99)
		_ = c.response.WriteOne(0x02)
		_ = c.response.WriteOne(0x01)
		_ = c.response.WriteOne(0xC3)
	}
	c.raiseInterrupt(Int3Acknowledge)
	return true, nil
}

// cmdGetID (0x1A): no parameters; responds with a licensed-disc ID
// sequence, INT2 (or INT5 with a distinct response when no disc is
// present — modeled here only for the disc-present path since disc
// swapping is out of scope).
func cmdGetID(c *Controller, iteration int) (bool, error) {
	if iteration == 0 {
		_ = c.response.WriteOne(0)
		c.raiseInterrupt(Int3Acknowledge)
		return false, nil
	}
	for _, b := range []uint8{0x02, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A'} {
		_ = c.response.WriteOne(b)
	}
	c.raiseInterrupt(Int2Complete)
	return true, nil
}
