package vision

import (
	"context"
	"errors"
	"fmt"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// DefaultBrightnessThreshold средняя яркость, выше которой изделие годное
const DefaultBrightnessThreshold = 100.0

// BrightnessClassifier оценивает изделие по средней яркости кадра (без OpenCV).
type BrightnessClassifier struct {
	Threshold float64
}

// NewBrightnessClassifier создаёт классификатор с порогом яркости.
func NewBrightnessClassifier(threshold float64) *BrightnessClassifier {
	if threshold <= 0 {
		threshold = DefaultBrightnessThreshold
	}
	return &BrightnessClassifier{Threshold: threshold}
}

// Classify возвращает ResultPass для светлого кадра и ResultFail для тёмного.
func (c *BrightnessClassifier) Classify(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error) {
	mean, err := MeanLuma(frame)
	if err != nil {
		return entity.ResultNone, err
	}
	return decide(mean, c.Threshold), nil
}

// checkBGR кадр не пуст и буфер вмещает Width*Height*3 байт
func checkBGR(frame *entity.Frame) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	if n := frame.Width * frame.Height * 3; len(frame.Pixels) < n {
		return fmt.Errorf("frame buffer too short: %d bytes for %dx%d BGR", len(frame.Pixels), frame.Width, frame.Height)
	}
	return nil
}

// MeanLuma средняя яркость BGR-кадра по формуле BT.601, как в cvtColor BGR2GRAY.
func MeanLuma(frame *entity.Frame) (float64, error) {
	if err := checkBGR(frame); err != nil {
		return 0, err
	}
	n := frame.Width * frame.Height

	var sum float64
	px := frame.Pixels
	for i := 0; i < n*3; i += 3 {
		sum += 0.114*float64(px[i]) + 0.587*float64(px[i+1]) + 0.299*float64(px[i+2])
	}
	return sum / float64(n), nil
}

func decide(mean, threshold float64) entity.ResultCode {
	if mean > threshold {
		return entity.ResultPass
	}
	return entity.ResultFail
}

// Проверка реализации интерфейса
var _ port.Classifier = (*BrightnessClassifier)(nil)
