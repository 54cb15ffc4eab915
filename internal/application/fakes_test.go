package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

const testPrefix = "ns=4;s=|var|PLC210 OPC-UA.Application.TargetVars."

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock время, которое двигается только вызовами Sleep
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type deviceWrite struct {
	Name  entity.VarName
	Value any
}

// fakeDevice имитация ПЛК. Считает одновременные обращения к сессии.
type fakeDevice struct {
	mu          sync.Mutex
	up          bool
	values      map[string]any
	writes      []deviceWrite
	dialTimes   []time.Time
	failResolve bool
	failRead    bool
	sessions    int
	closed      int

	clock    *fakeClock
	names    map[string]entity.VarName
	hold     time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeDevice(clock *fakeClock) *fakeDevice {
	d := &fakeDevice{
		up:     true,
		values: make(map[string]any),
		clock:  clock,
		names:  make(map[string]entity.VarName),
	}
	for _, b := range entity.DefaultBindings(testPrefix) {
		d.names[b.Locator] = b.Name
		d.values[b.Locator] = b.Default
	}
	return d
}

func (d *fakeDevice) enter() func() {
	n := d.inFlight.Add(1)
	for {
		seen := d.maxSeen.Load()
		if n <= seen || d.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if d.hold > 0 {
		time.Sleep(d.hold)
	}
	return func() { d.inFlight.Add(-1) }
}

func (d *fakeDevice) SetUp(up bool) {
	d.mu.Lock()
	d.up = up
	d.mu.Unlock()
}

func (d *fakeDevice) Set(name entity.VarName, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for loc, n := range d.names {
		if n == name {
			d.values[loc] = v
		}
	}
}

func (d *fakeDevice) Writes() []deviceWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]deviceWrite(nil), d.writes...)
}

func (d *fakeDevice) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dialTimes)
}

func (d *fakeDevice) Dial(ctx context.Context, endpoint string) (port.DeviceSession, error) {
	defer d.enter()()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.clock != nil {
		d.dialTimes = append(d.dialTimes, d.clock.Now())
	} else {
		d.dialTimes = append(d.dialTimes, time.Now())
	}
	if !d.up {
		return nil, fmt.Errorf("%w: %s: connection refused", port.ErrConnect, endpoint)
	}
	d.sessions++
	return &fakeSession{dev: d}, nil
}

type fakeSession struct {
	dev    *fakeDevice
	closed bool
}

func (s *fakeSession) Resolve(ctx context.Context, locator string) (port.Handle, error) {
	defer s.dev.enter()()
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.dev.failResolve {
		return nil, fmt.Errorf("%w: %s", port.ErrResolve, locator)
	}
	if _, ok := s.dev.names[locator]; !ok {
		return nil, fmt.Errorf("%w: unknown node %s", port.ErrResolve, locator)
	}
	return locator, nil
}

func (s *fakeSession) Read(ctx context.Context, h port.Handle) (any, error) {
	defer s.dev.enter()()
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.closed {
		return nil, errors.New("session closed")
	}
	if !s.dev.up || s.dev.failRead {
		return nil, fmt.Errorf("%w: bad connection", port.ErrIO)
	}
	return s.dev.values[h.(string)], nil
}

func (s *fakeSession) Write(ctx context.Context, h port.Handle, value any, t entity.VarType) error {
	defer s.dev.enter()()
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if !s.dev.up {
		return fmt.Errorf("%w: bad connection", port.ErrIO)
	}
	loc := h.(string)
	s.dev.values[loc] = value
	s.dev.writes = append(s.dev.writes, deviceWrite{Name: s.dev.names[loc], Value: value})
	return nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.dev.closed++
	}
	return nil
}

// recordingObserver запоминает события связи
type recordingObserver struct {
	mu     sync.Mutex
	events []entity.LinkEvent
}

func (o *recordingObserver) OnLinkEvent(ev entity.LinkEvent) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

func (o *recordingObserver) Kinds() []entity.LinkEventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]entity.LinkEventKind, 0, len(o.events))
	for _, ev := range o.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestStore(dev *fakeDevice, clock *fakeClock) *VariableStore {
	s := NewVariableStore(StoreConfig{
		Endpoint: "opc.tcp://plc.test:4840",
		Bindings: entity.DefaultBindings(testPrefix),
	}, dev, discardLogger())
	if clock != nil {
		s.now = clock.Now
		s.sleep = clock.Sleep
	}
	return s
}

// staticFrames источник кадров для тестов цикла
type staticFrames struct {
	frame *entity.Frame
}

func (f *staticFrames) Latest() (*entity.Frame, bool) {
	if f.frame == nil {
		return nil, false
	}
	return f.frame.Clone(), true
}

// classifierFunc адаптер функции к port.Classifier
type classifierFunc func(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error)

func (f classifierFunc) Classify(ctx context.Context, frame *entity.Frame) (entity.ResultCode, error) {
	return f(ctx, frame)
}
