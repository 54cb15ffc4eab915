//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"plc-vision/internal/domain/entity"
)

type GoCVClassifier struct {
	Threshold float64
}

// NewGoCVClassifier создаёт классификатор-заглушку (без OpenCV).
func NewGoCVClassifier(threshold float64) *GoCVClassifier {
	if threshold <= 0 {
		threshold = DefaultBrightnessThreshold
	}
	return &GoCVClassifier{Threshold: threshold}
}

// Classify возвращает ошибку, если сборка без тега gocv.
func (c *GoCVClassifier) Classify(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error) {
	_ = ctx
	_ = frame
	return entity.ResultNone, errors.New("gocv build tag is not enabled")
}
