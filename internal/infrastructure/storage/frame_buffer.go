package storage

import (
	"sync/atomic"
	"time"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// FrameBuffer хранит только самый свежий кадр.
// Сохранённый кадр неизменяем: Publish кладёт копию, Latest отдаёт копию.
type FrameBuffer struct {
	current atomic.Pointer[entity.Frame]
	seq     atomic.Uint64
	now     func() time.Time
}

// NewFrameBuffer создаёт пустой буфер
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{now: time.Now}
}

// Publish заменяет текущий кадр. Предыдущий кадр отбрасывается.
func (b *FrameBuffer) Publish(frame *entity.Frame) {
	if frame == nil {
		return
	}
	stored := frame.Clone()
	stored.Seq = b.seq.Add(1)
	if stored.CapturedAt.IsZero() {
		stored.CapturedAt = b.now()
	}
	b.current.Store(stored)
}

// Latest возвращает копию последнего кадра или false, если кадров ещё не было
func (b *FrameBuffer) Latest() (*entity.Frame, bool) {
	f := b.current.Load()
	if f == nil {
		return nil, false
	}
	return f.Clone(), true
}

// LatestSeq номер последнего кадра без копирования пикселей, 0 до первого кадра
func (b *FrameBuffer) LatestSeq() uint64 {
	if f := b.current.Load(); f != nil {
		return f.Seq
	}
	return 0
}

// LatestPreview возвращает JPEG последнего кадра и его номер
func (b *FrameBuffer) LatestPreview() ([]byte, uint64, bool) {
	f := b.current.Load()
	if f == nil || len(f.Preview) == 0 {
		return nil, 0, false
	}
	return append([]byte(nil), f.Preview...), f.Seq, true
}

// Проверка реализации интерфейса
var _ port.FrameStore = (*FrameBuffer)(nil)
