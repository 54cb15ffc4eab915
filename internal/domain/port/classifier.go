package port

import (
	"context"

	"plc-vision/internal/domain/entity"
)

// Classifier интерфейс анализа кадра
type Classifier interface {
	// Classify возвращает код результата для кадра
	Classify(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error)
}
