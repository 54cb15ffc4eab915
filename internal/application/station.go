package app

import (
	"context"
	"errors"
	"time"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// ErrNoSnapshot кадра для показа ещё нет
var ErrNoSnapshot = errors.New("frame is not ready yet")

// LinkStatusSource источник состояния связи с ПЛК
type LinkStatusSource interface {
	Status() entity.LinkStatus
}

// PreviewSource источник JPEG последнего кадра
type PreviewSource interface {
	LatestPreview() ([]byte, uint64, bool)
	LatestSeq() uint64
}

// StationStatus сводное состояние станции для веба и бота.
type StationStatus struct {
	Link     entity.LinkStatus
	FrameSeq uint64
	Recent   []entity.Inspection
	Totals   entity.InspectionTotals
	At       time.Time
}

// LastInspection последняя обработка или nil
func (s *StationStatus) LastInspection() *entity.Inspection {
	if len(s.Recent) == 0 {
		return nil
	}
	return &s.Recent[0]
}

// StationService отдаёт снимки состояния и последний кадр внешним интерфейсам.
// С ядром связан только через интерфейсы чтения.
type StationService struct {
	link    LinkStatusSource
	preview PreviewSource
	history port.InspectionRepository
	recent  int
}

// NewStationService создаёт сервис, recent — сколько последних обработок показывать.
func NewStationService(link LinkStatusSource, preview PreviewSource, history port.InspectionRepository, recent int) *StationService {
	if recent <= 0 {
		recent = 10
	}
	return &StationService{
		link:    link,
		preview: preview,
		history: history,
		recent:  recent,
	}
}

// Status собирает текущее состояние
func (s *StationService) Status(ctx context.Context) (*StationStatus, error) {
	out := &StationStatus{
		Link:     s.link.Status(),
		FrameSeq: s.preview.LatestSeq(),
		At:       time.Now(),
	}

	recent, err := s.history.Recent(ctx, s.recent)
	if err != nil {
		return nil, err
	}
	out.Recent = recent

	totals, err := s.history.Totals(ctx)
	if err != nil {
		return nil, err
	}
	out.Totals = totals

	return out, nil
}

// Snapshot возвращает JPEG последнего кадра
func (s *StationService) Snapshot() ([]byte, uint64, error) {
	data, seq, ok := s.preview.LatestPreview()
	if !ok {
		return nil, 0, ErrNoSnapshot
	}
	return data, seq, nil
}
