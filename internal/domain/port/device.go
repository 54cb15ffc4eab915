package port

import (
	"context"
	"errors"

	"plc-vision/internal/domain/entity"
)

// Виды ошибок сессии с устройством.
var (
	ErrConnect = errors.New("device connect failed")
	ErrResolve = errors.New("device locator resolution failed")
	ErrIO      = errors.New("device io failed")
	ErrType    = errors.New("device value type mismatch")
)

// Handle непрозрачная ссылка на переменную внутри сессии.
type Handle any

// DeviceDialer устанавливает сессию с устройством (одна попытка, без повторов)
type DeviceDialer interface {
	Dial(ctx context.Context, endpoint string) (DeviceSession, error)
}

// DeviceSession тонкий транспорт к устройству
type DeviceSession interface {
	// Resolve находит переменную по адресу
	Resolve(ctx context.Context, locator string) (Handle, error)

	// Read читает текущее значение переменной
	Read(ctx context.Context, h Handle) (any, error)

	// Write записывает значение заданного типа
	Write(ctx context.Context, h Handle, value any, t entity.VarType) error

	// Close закрывает сессию, повторный вызов безопасен
	Close(ctx context.Context) error
}

// LinkObserver получает события связи. Реализация не должна блокировать.
type LinkObserver interface {
	OnLinkEvent(ev entity.LinkEvent)
}
