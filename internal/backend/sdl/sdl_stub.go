//go:build !sdl

package sdl

import (
	"fmt"

	"github.com/cantrip-labs/psxcore/internal/backend"
)

// Video stub for when the sdl build tag isn't set.
type Video struct{}

func NewVideo() *Video { return &Video{} }

func (v *Video) Init(backend.VideoConfig) error {
	return fmt.Errorf("sdl video backend not available - build with -tags sdl and install SDL2 development libraries")
}

func (v *Video) Present(hres, vres uint8, drawingOdd bool) error {
	return fmt.Errorf("sdl video backend not available")
}

func (v *Video) Cleanup() error { return nil }

// Audio stub for when the sdl build tag isn't set.
type Audio struct{}

func NewAudio() *Audio { return &Audio{} }

func (a *Audio) Init(backend.AudioConfig) error {
	return fmt.Errorf("sdl audio backend not available - build with -tags sdl and install SDL2 development libraries")
}

func (a *Audio) PushSamples(left, right int16) error {
	return fmt.Errorf("sdl audio backend not available")
}

func (a *Audio) Cleanup() error { return nil }

var (
	_ backend.VideoBackend = (*Video)(nil)
	_ backend.AudioBackend = (*Audio)(nil)
)
