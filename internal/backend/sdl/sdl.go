//go:build sdl

// Package sdl provides concrete backend.VideoBackend and backend.AudioBackend
// implementations over go-sdl2, gated behind the "sdl" build tag exactly as
// the teacher keeps its own SDL2 backend optional.
package sdl

import (
	"fmt"
	"log/slog"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/cantrip-labs/psxcore/internal/backend"
)

// Video is an SDL2 window backend.VideoBackend.
type Video struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	running  bool
}

func NewVideo() *Video {
	return &Video{}
}

func (v *Video) Init(config backend.VideoConfig) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl: init failed: %w", err)
	}

	scale := config.Scale
	if scale < 1 {
		scale = 1
	}

	flags := uint32(sdl.WINDOW_SHOWN)
	if config.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(640*scale),
		int32(480*scale),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("sdl: create window failed: %w", err)
	}
	v.window = window

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if config.VSync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl: create renderer failed: %w", err)
	}
	v.renderer = renderer

	v.running = true
	slog.Info("sdl video backend initialized", "title", config.Title)
	return nil
}

// Present clears and flips the window on each call. GP0/GP1 drawing
// command execution is out of scope, so there is no VRAM to blit yet;
// this stands ready for a decoder that produces real pixel contents.
func (v *Video) Present(hres, vres uint8, drawingOdd bool) error {
	if !v.running {
		return fmt.Errorf("sdl: video backend not initialized")
	}

	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if _, ok := ev.(*sdl.QuitEvent); ok {
			v.running = false
		}
	}
	if !v.running {
		return nil
	}

	v.renderer.SetDrawColor(0, 0, 0, 255)
	v.renderer.Clear()
	v.renderer.Present()
	return nil
}

func (v *Video) Cleanup() error {
	if v.renderer != nil {
		v.renderer.Destroy()
	}
	if v.window != nil {
		v.window.Destroy()
	}
	sdl.Quit()
	return nil
}

// Audio is an SDL2 queued-audio-device backend.AudioBackend.
type Audio struct {
	dev sdl.AudioDeviceID
}

func NewAudio() *Audio {
	return &Audio{}
}

func (a *Audio) Init(config backend.AudioConfig) error {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdl: audio init failed: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     int32(config.SampleRateHz),
		Format:   sdl.AUDIO_S16LSB,
		Channels: uint8(config.Channels),
		Samples:  512,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return fmt.Errorf("sdl: open audio device failed: %w", err)
	}
	a.dev = dev
	sdl.PauseAudioDevice(a.dev, false)
	return nil
}

func (a *Audio) PushSamples(left, right int16) error {
	buf := []byte{
		byte(left), byte(left >> 8),
		byte(right), byte(right >> 8),
	}
	return sdl.QueueAudio(a.dev, buf)
}

func (a *Audio) Cleanup() error {
	if a.dev != 0 {
		sdl.CloseAudioDevice(a.dev)
	}
	sdl.Quit()
	return nil
}

var (
	_ backend.VideoBackend = (*Video)(nil)
	_ backend.AudioBackend = (*Audio)(nil)
)
