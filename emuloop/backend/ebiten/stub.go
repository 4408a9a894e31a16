//go:build !ebiten

package ebiten

import (
	"context"
	"errors"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/video"
)

var errUnavailable = errors.New("Ebiten frontend not available - build with -tags ebiten to enable")

// Available reports whether this build includes the Ebiten frontend.
func Available() bool { return false }

// Backend stub for when Ebiten is not available
type Backend struct{}

var _ backend.Frontend = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

// Init returns an error indicating Ebiten is not available
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
