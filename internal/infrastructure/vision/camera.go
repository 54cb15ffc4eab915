//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// CameraOpener открывает USB-камеру через OpenCV.
type CameraOpener struct {
	JPEGQuality int // качество превью для веба
}

// NewCameraOpener создаёт открыватель камер с заданным качеством JPEG.
func NewCameraOpener(jpegQuality int) *CameraOpener {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &CameraOpener{JPEGQuality: jpegQuality}
}

// Open открывает камеру по индексу.
func (o *CameraOpener) Open(ctx context.Context, index int) (port.Camera, error) {
	_ = ctx
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d is not opened", index)
	}

	return &Camera{vc: vc, img: gocv.NewMat(), quality: o.JPEGQuality}, nil
}

// Camera открытая камера. Не потокобезопасна: читает только поток захвата.
type Camera struct {
	vc      *gocv.VideoCapture
	img     gocv.Mat
	quality int
}

// Read читает кадр, копирует пиксели и готовит превью (серый + размытие).
func (c *Camera) Read(ctx context.Context) (*entity.Frame, error) {
	_ = ctx
	if ok := c.vc.Read(&c.img); !ok {
		return nil, errors.New("cannot read frame")
	}
	if c.img.Empty() {
		return nil, errors.New("empty frame")
	}

	frame := &entity.Frame{
		CapturedAt: time.Now(),
		Width:      c.img.Cols(),
		Height:     c.img.Rows(),
		Pixels:     c.img.ToBytes(),
	}

	blur := grayBlur(c.img)
	defer blur.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, blur, []int{gocv.IMWriteJpegQuality, c.quality})
	if err != nil {
		// кадр пригоден для анализа и без превью
		return frame, nil
	}
	defer buf.Close()
	frame.Preview = append([]byte(nil), buf.GetBytes()...)

	return frame, nil
}

// Close освобождает камеру.
func (c *Camera) Close() error {
	c.img.Close()
	return c.vc.Close()
}

// Проверка реализации интерфейсов
var (
	_ port.CameraOpener = (*CameraOpener)(nil)
	_ port.Camera       = (*Camera)(nil)
)
