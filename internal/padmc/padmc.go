// Package padmc implements the controller/memory-card serial port: a
// one-byte-at-a-time exchange register with a deferred-completion timer,
// generalized from a one-shot transfer into the console's documented
// per-byte handshake (TX starts a transfer, RX yields the previous
// reply, ACK/IRQ fire on completion).
package padmc

import (
	"log/slog"

	"github.com/cantrip-labs/psxcore/internal/addr"
	"github.com/cantrip-labs/psxcore/internal/bit"
	"github.com/cantrip-labs/psxcore/internal/intc"
)

// Device is an external collaborator (a pad or memory card) that returns
// the byte it would reply with for a transmitted byte; the command FSM
// itself belongs to the device, not this port.
type Device interface {
	Exchange(tx uint8) (rx uint8, ackPending bool)
}

// Controller is the serial port: a TX/RX register pair plus the CTRL
// fields needed to start a transfer and fire its completion interrupt.
type Controller struct {
	txPending bool
	tx        uint8
	rx        uint8
	rxReady   bool

	transferActive bool
	countdown      int

	selectedDevice int
	devices        [2]Device

	ctrl uint16
	stat uint32
	mode uint16
	baud uint16

	intc *intc.Controller

	// Immediate completes a transfer within the same Tick it was
	// started on; false uses the countdown, mirroring the teacher's
	// fixed-timing option for deterministic tests.
	Immediate     bool
	CyclesPerByte int
}

func New(ic *intc.Controller) *Controller {
	return &Controller{
		intc:          ic,
		Immediate:     true,
		CyclesPerByte: 256,
		rx:            0xFF,
	}
}

// SetDevice wires a controller/memory card into one of the two ports.
func (c *Controller) SetDevice(port int, d Device) { c.devices[port] = d }

// SelectPort chooses which wired device CTRL's port-select bit targets.
func (c *Controller) SelectPort(port int) { c.selectedDevice = port }

// WriteTX starts a transfer with the given byte. A write while a transfer
// is already active is not rejected or reported as an error: it replaces
// the pending TX byte and no new transfer starts during the active one.
func (c *Controller) WriteTX(v uint8) {
	c.tx = v
	c.txPending = true
	c.maybeStartTransfer()
}

// ReadRX returns the last completed exchange's reply byte; a stub device
// (or no device wired) always yields 0xFF, matching the undriven-line
// default.
func (c *Controller) ReadRX() uint8 {
	c.rxReady = false
	return c.rx
}

func (c *Controller) ReadStat() uint32 {
	v := c.stat
	if !c.transferActive {
		v |= 1 << 0 // TX ready
	}
	if c.rxReady {
		v |= 1 << 1
	}
	return v
}

func (c *Controller) WriteCtrl(v uint16) { c.ctrl = v }
func (c *Controller) ReadCtrl() uint16   { return c.ctrl }

// WriteMode/ReadMode and WriteBaud/ReadBaud expose MODE and BAUD as plain
// storage, matching the original controller's own register, which is
// never read back internally by the transfer FSM.
func (c *Controller) WriteMode(v uint16) { c.mode = v }
func (c *Controller) ReadMode() uint16   { return c.mode }

func (c *Controller) WriteBaud(v uint16) { c.baud = v }
func (c *Controller) ReadBaud() uint16   { return c.baud }

func (c *Controller) maybeStartTransfer() {
	if c.transferActive || !c.txPending {
		return
	}
	if !bit.IsSet16(c.ctrl, 1) { // TXEN
		return
	}

	c.txPending = false

	if c.Immediate {
		c.completeTransfer()
		return
	}

	c.transferActive = true
	c.countdown = c.CyclesPerByte
}

// Tick advances the deferred-completion countdown by the given cycle
// delta.
func (c *Controller) Tick(cycles int) {
	if c.Immediate || !c.transferActive {
		return
	}
	c.countdown -= cycles
	if c.countdown <= 0 {
		c.completeTransfer()
	}
}

func (c *Controller) completeTransfer() {
	dev := c.devices[c.selectedDevice]
	ackPending := false
	if dev != nil {
		c.rx, ackPending = dev.Exchange(c.tx)
	} else {
		c.rx = 0xFF
	}
	c.rxReady = true
	c.transferActive = false

	if bit.IsSet16(c.ctrl, 10) { // ACK interrupt enable
		c.intc.Assert(addr.IRQPADMC)
		slog.Debug("padmc transfer complete", "ackPending", ackPending)
	}
}
