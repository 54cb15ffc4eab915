package container

import (
	"log/slog"

	app "plc-vision/internal/application"
	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
	"plc-vision/internal/infrastructure/storage"
)

// Options параметры сборки станции
type Options struct {
	Store   app.StoreConfig
	Control app.ControlConfig
	Capture app.CaptureConfig
	History int // сколько последних обработок хранить
}

type Container struct {
	Frames      *storage.FrameBuffer
	Inspections *storage.MemoryInspectionRepository

	Variables *app.VariableStore
	Control   *app.ControlLoop
	Capture   *app.CaptureService
	Station   *app.StationService
	Operators *app.OperatorService
}

func New(dialer port.DeviceDialer, camera port.CameraOpener, classifier port.Classifier, opts Options, logger *slog.Logger) *Container {
	if len(opts.Store.Bindings) == 0 {
		opts.Store.Bindings = entity.DefaultBindings("")
	}

	frames := storage.NewFrameBuffer()
	inspections := storage.NewMemoryInspectionRepository(opts.History)

	variables := app.NewVariableStore(opts.Store, dialer, logger)
	control := app.NewControlLoop(variables, frames, classifier, inspections, opts.Control, logger)
	capture := app.NewCaptureService(camera, frames, opts.Capture, logger)
	station := app.NewStationService(variables, frames, inspections, 10)
	operators := app.NewOperatorService(storage.NewMemoryOperatorRepository())

	return &Container{
		Frames:      frames,
		Inspections: inspections,
		Variables:   variables,
		Control:     control,
		Capture:     capture,
		Station:     station,
		Operators:   operators,
	}
}
