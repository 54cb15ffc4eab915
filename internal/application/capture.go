package app

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"plc-vision/internal/domain/port"
)

const (
	DefaultCameraReopenBackoff = 3 * time.Second
	DefaultReadFailurePause    = time.Second
	DefaultFrameInterval       = 100 * time.Millisecond
)

// CaptureConfig настройки потока камеры
type CaptureConfig struct {
	Index            int
	ReopenBackoff    time.Duration // пауза между попытками открыть камеру
	ReadFailurePause time.Duration // пауза после потери камеры
	FrameInterval    time.Duration
}

// cameraState принадлежит только потоку захвата
type cameraState struct {
	cam          port.Camera
	openFailures int
}

// CaptureService читает кадры с камеры и кладёт последний в буфер.
// Камера переоткрывается при любой ошибке чтения.
type CaptureService struct {
	opener port.CameraOpener
	frames port.FrameStore
	cfg    CaptureConfig
	log    *slog.Logger

	state    cameraState
	captured atomic.Uint64

	sleep    func(ctx context.Context, d time.Duration) error
	newTimer func() backoff.Timer // nil = настоящий таймер
}

// NewCaptureService создаёт поток захвата
func NewCaptureService(opener port.CameraOpener, frames port.FrameStore, cfg CaptureConfig, logger *slog.Logger) *CaptureService {
	if cfg.ReopenBackoff <= 0 {
		cfg.ReopenBackoff = DefaultCameraReopenBackoff
	}
	if cfg.ReadFailurePause <= 0 {
		cfg.ReadFailurePause = DefaultReadFailurePause
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CaptureService{
		opener: opener,
		frames: frames,
		cfg:    cfg,
		log:    logger.With("component", "camera", "index", cfg.Index),
		sleep:  sleepCtx,
	}
}

// Captured количество кадров, переданных в буфер
func (s *CaptureService) Captured() uint64 {
	return s.captured.Load()
}

// Run читает кадры до отмены контекста
func (s *CaptureService) Run(ctx context.Context) error {
	defer s.release()

	for ctx.Err() == nil {
		if s.state.cam == nil {
			if err := s.open(ctx); err != nil {
				return nil
			}
		}

		frame, err := s.state.cam.Read(ctx)
		if err != nil || frame.Empty() {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("cannot read frame, camera may be lost", "error", err)
			s.release()
			if s.sleep(ctx, s.cfg.ReadFailurePause) != nil {
				return nil
			}
			continue
		}

		s.frames.Publish(frame)
		s.captured.Add(1)

		if s.sleep(ctx, s.cfg.FrameInterval) != nil {
			return nil
		}
	}
	return nil
}

// open пытается открыть камеру с постоянной паузой между попытками.
// Ошибку возвращает только при отмене контекста.
func (s *CaptureService) open(ctx context.Context) error {
	attempt := func() (port.Camera, error) {
		return s.opener.Open(ctx, s.cfg.Index)
	}
	notify := func(err error, wait time.Duration) {
		s.state.openFailures++
		if s.state.openFailures == 1 {
			s.log.Warn("camera not found, retrying", "error", err, "backoff", wait)
		} else {
			s.log.Debug("camera still unavailable", "attempts", s.state.openFailures, "error", err)
		}
	}

	var timer backoff.Timer
	if s.newTimer != nil {
		timer = s.newTimer()
	}

	boff := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.ReopenBackoff), ctx)
	cam, err := backoff.RetryNotifyWithTimerAndData(attempt, boff, notify, timer)
	if err != nil {
		return err
	}

	s.state.cam = cam
	s.state.openFailures = 0
	s.log.Info("camera connected")
	return nil
}

func (s *CaptureService) release() {
	if s.state.cam == nil {
		return
	}
	if err := s.state.cam.Close(); err != nil {
		s.log.Debug("camera close failed", "error", err)
	}
	s.state.cam = nil
}
