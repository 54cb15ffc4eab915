package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

const (
	DefaultReconnectCooldown  = 3 * time.Second
	DefaultMisconfigThreshold = 10

	closeTimeout = time.Second
)

// StoreConfig настройки хранилища переменных
type StoreConfig struct {
	Endpoint           string
	Bindings           []entity.Binding
	Cooldown           time.Duration  // пауза между попытками подключения
	MisconfigThreshold int            // после стольких неудач подряд подозреваем ошибку конфигурации
	Probe              entity.VarName // переменная для пробного чтения
}

// VariableStore безопасный доступ к переменным ПЛК.
// Чтение и запись никогда не возвращают ошибок: при отсутствии связи
// чтение отдаёт значение по умолчанию, а запись пропускается.
// Все обращения к устройству идут под одним мьютексом.
type VariableStore struct {
	cfg       StoreConfig
	dialer    port.DeviceDialer
	log       *slog.Logger
	bindings  map[entity.VarName]entity.Binding
	observers []port.LinkObserver

	mu          sync.Mutex
	session     port.DeviceSession // nil = нет связи
	handles     map[entity.VarName]port.Handle
	nextAttempt time.Time
	connects    int

	bound      atomic.Bool
	reconnects atomic.Int64
	failures   atomic.Int64
	lastError  atomic.Pointer[string]
	changedAt  atomic.Int64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewVariableStore создаёт хранилище. Подключение выполняется лениво, при первом обращении.
func NewVariableStore(cfg StoreConfig, dialer port.DeviceDialer, logger *slog.Logger) *VariableStore {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultReconnectCooldown
	}
	if cfg.MisconfigThreshold <= 0 {
		cfg.MisconfigThreshold = DefaultMisconfigThreshold
	}
	if cfg.Probe == "" {
		cfg.Probe = entity.VarReady
	}
	if logger == nil {
		logger = slog.Default()
	}

	bindings := make(map[entity.VarName]entity.Binding, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		bindings[b.Name] = b
	}

	return &VariableStore{
		cfg:      cfg,
		dialer:   dialer,
		log:      logger.With("component", "plc", "endpoint", cfg.Endpoint),
		bindings: bindings,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// AddObserver подписывает наблюдателя на события связи. Вызывать до начала работы.
func (s *VariableStore) AddObserver(o port.LinkObserver) {
	s.observers = append(s.observers, o)
}

// Read возвращает значение переменной или её значение по умолчанию.
func (s *VariableStore) Read(ctx context.Context, name entity.VarName) any {
	b, ok := s.bindings[name]
	if !ok {
		s.log.Error("read of unknown variable", "var", name)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ensureBound(ctx) {
		return b.Default
	}

	raw, err := s.session.Read(ctx, s.handles[name])
	if err != nil {
		if errors.Is(err, port.ErrType) {
			s.log.Warn("plc read returned unexpected type", "var", name, "error", err)
			return b.Default
		}
		s.log.Warn("plc read failed", "var", name, "error", err)
		s.teardown(ctx, err)
		return b.Default
	}

	v, err := b.Type.Convert(raw)
	if err != nil {
		s.log.Warn("plc value has unexpected type", "var", name, "type", b.Type, "error", err)
		return b.Default
	}
	return v
}

// ReadBool читает логический флаг; при любой проблеме возвращает false.
func (s *VariableStore) ReadBool(ctx context.Context, name entity.VarName) bool {
	v, _ := s.Read(ctx, name).(bool)
	return v
}

// Write записывает значение переменной. Тип берётся из привязки.
// Подтверждения нет: при отсутствии связи запись только логируется.
func (s *VariableStore) Write(ctx context.Context, name entity.VarName, value any) {
	b, ok := s.bindings[name]
	if !ok {
		s.log.Error("write of unknown variable", "var", name)
		return
	}

	v, err := b.Type.Convert(value)
	if err != nil {
		s.log.Error("plc write rejected", "var", name, "value", value, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ensureBound(ctx) {
		s.log.Warn("plc unavailable, write skipped", "var", name, "value", v)
		return
	}

	if err := s.session.Write(ctx, s.handles[name], v, b.Type); err != nil {
		if errors.Is(err, port.ErrType) {
			s.log.Error("plc write rejected", "var", name, "value", v, "error", err)
			return
		}
		s.log.Warn("plc write failed", "var", name, "value", v, "error", err)
		s.teardown(ctx, err)
		return
	}
	s.log.Debug("plc write", "var", name, "value", v)
}

// Status снимок состояния связи. Не ждёт мьютекс хранилища.
func (s *VariableStore) Status() entity.LinkStatus {
	st := entity.LinkStatus{
		Endpoint:            s.cfg.Endpoint,
		Bound:               s.bound.Load(),
		Reconnects:          int(s.reconnects.Load()),
		ConsecutiveFailures: int(s.failures.Load()),
	}
	if p := s.lastError.Load(); p != nil {
		st.LastError = *p
	}
	if ns := s.changedAt.Load(); ns != 0 {
		st.ChangedAt = time.Unix(0, ns)
	}
	return st
}

// Close разрывает соединение при остановке программы
func (s *VariableStore) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}
	s.closeQuietly(ctx, s.session)
	s.session = nil
	s.handles = nil
	s.bound.Store(false)
	s.changedAt.Store(s.now().UnixNano())
	s.log.Info("plc connection closed")
}

// ensureBound вызывается под мьютексом. Делает не более одной попытки подключения,
// предварительно выждав остаток паузы после предыдущей неудачи.
func (s *VariableStore) ensureBound(ctx context.Context) bool {
	if s.session != nil {
		return true
	}

	if wait := s.nextAttempt.Sub(s.now()); wait > 0 {
		if err := s.sleep(ctx, wait); err != nil {
			return false
		}
	}

	if err := s.bind(ctx); err != nil {
		s.nextAttempt = s.now().Add(s.cfg.Cooldown)
		failures := s.failures.Add(1)
		s.setLastError(err)

		if failures%int64(s.cfg.MisconfigThreshold) == 0 {
			s.log.Error("plc still unreachable, check endpoint and node locators",
				"failures", failures, "error", err)
		} else {
			s.log.Warn("plc connect failed", "failures", failures, "error", err)
		}
		s.notify(entity.LinkEvent{Kind: entity.LinkFailed, Err: err})
		return false
	}

	reconnects := s.connects
	s.connects++
	s.reconnects.Store(int64(reconnects))
	s.failures.Store(0)
	s.bound.Store(true)
	s.changedAt.Store(s.now().UnixNano())

	if reconnects == 0 {
		s.log.Info("plc connection established")
	} else {
		s.log.Info("plc connection restored", "reconnects", reconnects)
	}
	s.notify(entity.LinkEvent{Kind: entity.LinkUp, Reconnects: reconnects})
	return true
}

// bind подключается, находит все переменные и делает пробное чтение.
// При любой ошибке попытка отбрасывается целиком.
func (s *VariableStore) bind(ctx context.Context) error {
	session, err := s.dialer.Dial(ctx, s.cfg.Endpoint)
	if err != nil {
		return err
	}

	handles := make(map[entity.VarName]port.Handle, len(s.cfg.Bindings))
	for _, b := range s.cfg.Bindings {
		h, err := session.Resolve(ctx, b.Locator)
		if err != nil {
			s.closeQuietly(ctx, session)
			return fmt.Errorf("resolve %s (%s): %w", b.Name, b.Locator, err)
		}
		handles[b.Name] = h
	}

	if probe, ok := handles[s.cfg.Probe]; ok {
		if _, err := session.Read(ctx, probe); err != nil {
			s.closeQuietly(ctx, session)
			return fmt.Errorf("probe read %s: %w", s.cfg.Probe, err)
		}
	}

	s.session = session
	s.handles = handles
	return nil
}

// teardown вызывается под мьютексом после ошибки ввода-вывода
func (s *VariableStore) teardown(ctx context.Context, cause error) {
	s.closeQuietly(ctx, s.session)
	s.session = nil
	s.handles = nil
	s.bound.Store(false)
	s.nextAttempt = s.now().Add(s.cfg.Cooldown)
	s.setLastError(cause)
	s.changedAt.Store(s.now().UnixNano())

	s.log.Warn("plc connection lost", "error", cause)
	s.notify(entity.LinkEvent{Kind: entity.LinkDown, Reconnects: s.connects - 1, Err: cause})
}

func (s *VariableStore) closeQuietly(ctx context.Context, session port.DeviceSession) {
	if session == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	if err := session.Close(cctx); err != nil {
		s.log.Debug("plc session close failed", "error", err)
	}
}

func (s *VariableStore) setLastError(err error) {
	msg := err.Error()
	s.lastError.Store(&msg)
}

func (s *VariableStore) notify(ev entity.LinkEvent) {
	ev.At = s.now()
	ev.Endpoint = s.cfg.Endpoint
	for _, o := range s.observers {
		o.OnLinkEvent(ev)
	}
}
