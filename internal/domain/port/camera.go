package port

import (
	"context"

	"plc-vision/internal/domain/entity"
)

// CameraOpener открывает камеру по индексу
type CameraOpener interface {
	Open(ctx context.Context, index int) (Camera, error)
}

// Camera источник кадров
type Camera interface {
	// Read блокирующе читает следующий кадр
	Read(ctx context.Context) (*entity.Frame, error)

	// Close освобождает устройство
	Close() error
}

// FrameStore последний кадр с камеры
type FrameStore interface {
	Publish(frame *entity.Frame)
	Latest() (*entity.Frame, bool)
}
