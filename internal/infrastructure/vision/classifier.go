//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// GoCVClassifier серый + размытие + средняя яркость.
type GoCVClassifier struct {
	Threshold float64
}

// NewGoCVClassifier создаёт классификатор на OpenCV.
func NewGoCVClassifier(threshold float64) *GoCVClassifier {
	if threshold <= 0 {
		threshold = DefaultBrightnessThreshold
	}
	return &GoCVClassifier{Threshold: threshold}
}

// Classify анализирует кадр и возвращает код результата.
func (c *GoCVClassifier) Classify(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error) {
	_ = ctx
	mat, err := frameToMat(frame)
	if err != nil {
		return entity.ResultNone, err
	}
	defer mat.Close()

	blur := grayBlur(mat)
	defer blur.Close()

	mean := blur.Mean()
	return decide(mean.Val1, c.Threshold), nil
}

// frameToMat копирует пиксели кадра в gocv.Mat.
func frameToMat(frame *entity.Frame) (gocv.Mat, error) {
	if err := checkBGR(frame); err != nil {
		return gocv.Mat{}, err
	}
	n := frame.Width * frame.Height * 3
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels[:n])
}

// grayBlur переводит в серый и размывает ядром 5x5.
func grayBlur(mat gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
	return blur
}

// Проверка реализации интерфейса
var _ port.Classifier = (*GoCVClassifier)(nil)
