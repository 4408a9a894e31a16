//go:build !sdl2

package sdl2

import (
	"context"
	"errors"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/video"
)

var errUnavailable = errors.New("SDL2 frontend not available - build with -tags sdl2 to enable")

// Available reports whether this build includes the SDL2 frontend.
func Available() bool { return false }

// Backend stub for when SDL2 is not available
type Backend struct{}

var _ backend.Frontend = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

// Init returns an error indicating SDL2 is not available
func (s *Backend) Init(config backend.Config) error {
	return errUnavailable
}

func (s *Backend) Size() (int, int) {
	return video.DefaultWidth, video.DefaultHeight
}

func (s *Backend) Present(frame *video.FrameBuffer) error {
	return errUnavailable
}

func (s *Backend) Run(ctx context.Context) error {
	return errUnavailable
}

// Cleanup does nothing
func (s *Backend) Cleanup() error {
	return nil
}
