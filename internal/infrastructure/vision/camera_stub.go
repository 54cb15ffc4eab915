//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"plc-vision/internal/domain/port"
)

type CameraOpener struct {
	JPEGQuality int
}

// NewCameraOpener создаёт открыватель-заглушку (без OpenCV).
func NewCameraOpener(jpegQuality int) *CameraOpener {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &CameraOpener{JPEGQuality: jpegQuality}
}

// Open возвращает ошибку, если сборка без тега gocv.
func (o *CameraOpener) Open(ctx context.Context, index int) (port.Camera, error) {
	_ = ctx
	_ = index
	return nil, errors.New("gocv build tag is not enabled")
}
