package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultErrorPause   = time.Second
)

// VariableAccess безопасные чтение и запись переменных ПЛК
type VariableAccess interface {
	ReadBool(ctx context.Context, name entity.VarName) bool
	Write(ctx context.Context, name entity.VarName, value any)
}

// FrameSource источник последнего кадра
type FrameSource interface {
	Latest() (*entity.Frame, bool)
}

// ControlConfig настройки цикла обмена
type ControlConfig struct {
	PollInterval time.Duration
	ErrorPause   time.Duration
}

// ControlLoop цикл обмена ПК ↔ ПЛК: ждёт готовности и нового изделия,
// анализирует последний кадр и отправляет результат.
type ControlLoop struct {
	vars       VariableAccess
	frames     FrameSource
	classifier port.Classifier
	history    port.InspectionRepository
	cfg        ControlConfig
	log        *slog.Logger

	busy bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewControlLoop создаёт цикл обмена. history может быть nil.
func NewControlLoop(vars VariableAccess, frames FrameSource, classifier port.Classifier, history port.InspectionRepository, cfg ControlConfig, logger *slog.Logger) *ControlLoop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ErrorPause <= 0 {
		cfg.ErrorPause = DefaultErrorPause
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ControlLoop{
		vars:       vars,
		frames:     frames,
		classifier: classifier,
		history:    history,
		cfg:        cfg,
		log:        logger.With("component", "control"),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run крутит цикл до отмены контекста. Ошибки внутри итерации не прерывают цикл.
func (c *ControlLoop) Run(ctx context.Context) error {
	c.log.Info("plc exchange loop started", "poll", c.cfg.PollInterval)
	defer c.log.Info("plc exchange loop stopped")

	for ctx.Err() == nil {
		started := c.now()

		if err := c.safeStep(ctx); err != nil {
			c.log.Error("unexpected error in plc exchange loop", "error", err)
			if c.sleep(ctx, c.cfg.ErrorPause) != nil {
				return nil
			}
			continue
		}

		if rest := c.cfg.PollInterval - c.now().Sub(started); rest > 0 {
			if c.sleep(ctx, rest) != nil {
				return nil
			}
		}
	}
	return nil
}

// Busy сообщает, идёт ли сейчас обработка изделия
func (c *ControlLoop) Busy() bool {
	return c.busy
}

func (c *ControlLoop) safeStep(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.busy = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	c.Step(ctx)
	return nil
}

// Step одна итерация опроса. Возвращает true, если изделие было обработано.
// Порядок записи: start-grab=true, error-code=0, [error-code], result, start-grab=false.
func (c *ControlLoop) Step(ctx context.Context) bool {
	ready := c.vars.ReadBool(ctx, entity.VarReady)
	newPart := c.vars.ReadBool(ctx, entity.VarNewPart)
	if !ready || !newPart || c.busy {
		return false
	}

	c.busy = true
	started := c.now()
	c.log.Info("new part under camera, processing started")

	c.vars.Write(ctx, entity.VarStartGrab, true)
	c.vars.Write(ctx, entity.VarErrorCode, entity.ErrNone)

	rec := entity.Inspection{At: started}

	frame, ok := c.frames.Latest()
	if !ok {
		c.log.Warn("no frame from camera")
		rec.ErrorCode = entity.ErrNoFrame
		c.vars.Write(ctx, entity.VarErrorCode, entity.ErrNoFrame)
		c.vars.Write(ctx, entity.VarResult, entity.ResultNone)
	} else {
		rec.FrameSeq = frame.Seq
		result, err := c.classify(ctx, frame)
		if err != nil {
			c.log.Error("frame classification failed", "frame", frame.Seq, "error", err)
			rec.ErrorCode = entity.ErrClassifyFailed
			c.vars.Write(ctx, entity.VarErrorCode, entity.ErrClassifyFailed)
			c.vars.Write(ctx, entity.VarResult, entity.ResultNone)
		} else {
			rec.Result = result
			c.vars.Write(ctx, entity.VarResult, result)
			c.log.Info("result sent to plc", "result", result, "code", int(result), "frame", frame.Seq)
		}
	}

	c.vars.Write(ctx, entity.VarStartGrab, false)
	c.busy = false

	rec.Duration = c.now().Sub(started)
	if c.history != nil {
		if err := c.history.Save(ctx, rec); err != nil {
			c.log.Warn("inspection not recorded", "error", err)
		}
	}
	return true
}

// classify вызывает классификатор; паника внутри него считается ошибкой анализа,
// чтобы start-grab всё равно был сброшен.
func (c *ControlLoop) classify(ctx context.Context, frame *entity.Frame) (result entity.ResultCode, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = entity.ResultNone, fmt.Errorf("classifier panic: %v", r)
		}
	}()
	if c.classifier == nil {
		return entity.ResultNone, fmt.Errorf("classifier is not configured")
	}
	return c.classifier.Classify(ctx, frame)
}
