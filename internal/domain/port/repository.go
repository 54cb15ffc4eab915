package port

import (
	"context"

	"plc-vision/internal/domain/entity"
)

// InspectionRepository интерфейс журнала обработанных изделий
type InspectionRepository interface {
	// Save добавляет запись
	Save(ctx context.Context, rec entity.Inspection) error

	// Recent возвращает до n последних записей, новые первыми
	Recent(ctx context.Context, n int) ([]entity.Inspection, error)

	// Totals возвращает счётчики с момента запуска
	Totals(ctx context.Context) (entity.InspectionTotals, error)
}

// OperatorRepository интерфейс хранилища операторов
type OperatorRepository interface {
	// Get возвращает оператора по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error)

	// Save сохраняет оператора
	Save(ctx context.Context, op *entity.Operator) error

	// Subscribed возвращает операторов с включёнными уведомлениями
	Subscribed(ctx context.Context) ([]*entity.Operator, error)
}
