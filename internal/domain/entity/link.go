package entity

import "time"

// LinkEventKind вид события связи с ПЛК.
type LinkEventKind string

const (
	LinkUp     LinkEventKind = "up"     // соединение установлено
	LinkDown   LinkEventKind = "down"   // соединение потеряно
	LinkFailed LinkEventKind = "failed" // попытка подключения не удалась
)

// LinkEvent событие состояния связи.
type LinkEvent struct {
	Kind       LinkEventKind
	At         time.Time
	Endpoint   string
	Reconnects int   // 0 для первого подключения
	Err        error // причина для down/failed
}

// Restored сообщает, что это повторное подключение после обрыва.
func (e LinkEvent) Restored() bool {
	return e.Kind == LinkUp && e.Reconnects > 0
}

// LinkStatus снимок состояния связи.
type LinkStatus struct {
	Endpoint            string
	Bound               bool
	Reconnects          int
	ConsecutiveFailures int
	LastError           string
	ChangedAt           time.Time
}
