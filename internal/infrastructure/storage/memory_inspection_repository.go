package storage

import (
	"context"
	"sync"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// MemoryInspectionRepository in-memory журнал последних обработанных изделий
type MemoryInspectionRepository struct {
	mu      sync.RWMutex
	records []entity.Inspection // кольцевой буфер
	next    int
	full    bool
	totals  entity.InspectionTotals
}

// NewMemoryInspectionRepository создаёт журнал на capacity записей
func NewMemoryInspectionRepository(capacity int) *MemoryInspectionRepository {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryInspectionRepository{
		records: make([]entity.Inspection, capacity),
	}
}

// Save добавляет запись, вытесняя самую старую при переполнении
func (r *MemoryInspectionRepository) Save(ctx context.Context, rec entity.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}

	r.totals.Total++
	switch {
	case rec.ErrorCode != entity.ErrNone:
		r.totals.Errors++
	case rec.Result == entity.ResultPass:
		r.totals.Passed++
	case rec.Result == entity.ResultFail:
		r.totals.Failed++
	}

	return nil
}

// Recent возвращает до n последних записей, новые первыми
func (r *MemoryInspectionRepository) Recent(ctx context.Context, n int) ([]entity.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.records)
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]entity.Inspection, 0, n)
	idx := r.next
	for i := 0; i < n; i++ {
		idx = (idx - 1 + len(r.records)) % len(r.records)
		out = append(out, r.records[idx])
	}

	return out, nil
}

// Totals возвращает счётчики с момента запуска
func (r *MemoryInspectionRepository) Totals(ctx context.Context) (entity.InspectionTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.totals, nil
}

// Проверка реализации интерфейса
var _ port.InspectionRepository = (*MemoryInspectionRepository)(nil)
