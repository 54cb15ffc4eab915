package storage

import (
	"context"
	"sort"
	"sync"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// MemoryOperatorRepository in-memory хранилище операторов
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
}

// NewMemoryOperatorRepository создаёт новое in-memory хранилище
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{
		operators: make(map[int64]*entity.Operator),
	}
}

// Get возвращает оператора по ID, создаёт нового если не найден
func (r *MemoryOperatorRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op, exists := r.operators[userID]; exists {
		return op, nil
	}

	op := entity.NewOperator(userID, chatID)
	r.operators[userID] = op

	return op, nil
}

// Save сохраняет оператора
func (r *MemoryOperatorRepository) Save(ctx context.Context, op *entity.Operator) error {
	r.mu.Lock()
	r.operators[op.ID] = op
	r.mu.Unlock()

	return nil
}

// Subscribed возвращает операторов с включёнными уведомлениями
func (r *MemoryOperatorRepository) Subscribed(ctx context.Context) ([]*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Operator, 0, len(r.operators))
	for _, op := range r.operators {
		if op.Subscribed {
			cp := *op
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// Проверка реализации интерфейса
var _ port.OperatorRepository = (*MemoryOperatorRepository)(nil)
