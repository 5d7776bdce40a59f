// Package backend defines the narrow capability interfaces a host platform
// implements to give the console real output: a window to draw into, a
// device to push audio samples to, a disc image to read sectors from. The
// core never depends on a concrete platform; it depends on these three
// interfaces and runs with stub implementations when none are registered.
package backend

import "errors"

// ErrUnsupported is returned by the stub backends wired in by default: no
// video/audio/disc device is registered until the host explicitly plugs
// one in (see backend/sdl for a concrete example).
var ErrUnsupported = errors.New("backend: unsupported")

// VideoConfig carries the presentation settings a video backend needs,
// independent of any single windowing toolkit.
type VideoConfig struct {
	Title      string
	Scale      int
	VSync      bool
	Fullscreen bool
}

// VideoBackend is notified once per Sequential time slice of the
// controller's current display geometry and draw parity. GP0/GP1 drawing command execution
// (and therefore actual VRAM pixel contents) is out of scope here; a
// backend that wants real pixels pairs this with its own GP0 decoder
// wired in place of gpu.Controller's Decoder.
type VideoBackend interface {
	// Init configures the backend. Required before the first Present.
	Init(config VideoConfig) error

	// Present is called once per Sequential time slice, whether or not
	// the slice reached a vblank, with the display resolution codes (as
	// written to GP1 display mode) and the current field parity for
	// interlaced modes. Parallel mode does not call it.
	Present(hres, vres uint8, drawingOdd bool) error

	// Cleanup releases any platform resources.
	Cleanup() error
}

// AudioConfig carries the settings an audio backend needs to open an
// output stream.
type AudioConfig struct {
	SampleRateHz int
	Channels     int
}

// AudioBackend receives interleaved stereo samples as they are produced by
// the audio mixing pipeline.
type AudioBackend interface {
	// Init opens the output stream. Required before the first PushSamples.
	Init(config AudioConfig) error

	// PushSamples delivers one tick's worth of mixed left/right samples.
	PushSamples(left, right int16) error

	// Cleanup closes the output stream.
	Cleanup() error
}

// CDROMBackend supplies raw sector data backing the disc drive's read
// commands. It mirrors the narrower cdrom.Backend contract the controller
// itself depends on, kept as a separate type here so host wiring code
// never needs to import the cdrom package directly.
type CDROMBackend interface {
	// Init opens the disc image. Required before the first ReadSector.
	Init(path string) error

	// ReadSector returns the raw bytes of the sector at the given
	// logical block address.
	ReadSector(lba uint32) ([]byte, error)

	// Cleanup closes the disc image.
	Cleanup() error
}

// StubVideo, StubAudio, and StubCDROM are placeholder backends. Their
// Init and Cleanup succeed; Present, PushSamples and ReadSector report
// ErrUnsupported. The scheduler wires in StubVideo and StubAudio by
// default and ignores their ErrUnsupported; it does not use StubCDROM
// (the CD-ROM controller gets a nil backend).
type StubVideo struct{}

func (StubVideo) Init(VideoConfig) error                { return nil }
func (StubVideo) Present(_, _ uint8, _ bool) error      { return ErrUnsupported }
func (StubVideo) Cleanup() error                        { return nil }

type StubAudio struct{}

func (StubAudio) Init(AudioConfig) error       { return nil }
func (StubAudio) PushSamples(_, _ int16) error { return ErrUnsupported }
func (StubAudio) Cleanup() error               { return nil }

type StubCDROM struct{}

func (StubCDROM) Init(string) error                    { return nil }
func (StubCDROM) ReadSector(uint32) ([]byte, error)     { return nil, ErrUnsupported }
func (StubCDROM) Cleanup() error                       { return nil }
