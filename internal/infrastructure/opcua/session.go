// Package opcua реализует сессию с ПЛК по OPC UA.
// Сессия тонкая: без повторов и без автоматического переподключения,
// устойчивость обеспечивает хранилище переменных уровнем выше.
package opcua

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	gopcua "github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"plc-vision/internal/domain/entity"
	"plc-vision/internal/domain/port"
)

// DefaultRequestTimeout ограничение на один запрос к серверу
const DefaultRequestTimeout = 2 * time.Second

// Dialer подключается к OPC UA серверу ПЛК
type Dialer struct {
	RequestTimeout time.Duration
}

// NewDialer создаёт Dialer с заданным таймаутом запросов
func NewDialer(requestTimeout time.Duration) *Dialer {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &Dialer{RequestTimeout: requestTimeout}
}

// Dial выполняет одну попытку подключения
func (d *Dialer) Dial(ctx context.Context, endpoint string) (port.DeviceSession, error) {
	client, err := gopcua.NewClient(endpoint,
		gopcua.SecurityMode(ua.MessageSecurityModeNone),
		gopcua.AutoReconnect(false),
		gopcua.RequestTimeout(d.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", port.ErrConnect, endpoint, err)
	}

	cctx, cancel := context.WithTimeout(ctx, d.RequestTimeout)
	defer cancel()

	if err := client.Connect(cctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", port.ErrConnect, endpoint, err)
	}

	return &Session{client: client}, nil
}

// Session открытая сессия с сервером
type Session struct {
	client *gopcua.Client
	closed atomic.Bool
}

type nodeHandle struct {
	id      *ua.NodeID
	locator string
}

// ValidateLocator проверяет синтаксис адреса узла без обращения к серверу.
// Требуется полная форма ns=<index>;<i|s|g|b>=<id>: ParseNodeID молча
// превращает строку без ";" в строковый узел нулевого пространства имён.
func ValidateLocator(locator string) error {
	_, err := parseLocator(locator)
	return err
}

func parseLocator(locator string) (*ua.NodeID, error) {
	ns, id, ok := strings.Cut(locator, ";")
	if !ok || !strings.HasPrefix(ns, "ns=") || len(ns) == len("ns=") {
		return nil, fmt.Errorf("%w: %q: expected ns=<index>;<type>=<id>", port.ErrResolve, locator)
	}
	kind, value, ok := strings.Cut(id, "=")
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %q: empty identifier", port.ErrResolve, locator)
	}
	switch kind {
	case "i", "s", "g", "b":
	default:
		return nil, fmt.Errorf("%w: %q: unknown identifier type %q", port.ErrResolve, locator, kind)
	}

	node, err := ua.ParseNodeID(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", port.ErrResolve, locator, err)
	}
	return node, nil
}

// Resolve разбирает адрес узла
func (s *Session) Resolve(ctx context.Context, locator string) (port.Handle, error) {
	id, err := parseLocator(locator)
	if err != nil {
		return nil, err
	}
	return nodeHandle{id: id, locator: locator}, nil
}

// Read читает атрибут Value узла
func (s *Session) Read(ctx context.Context, h port.Handle) (any, error) {
	node, err := s.node(h)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Read(ctx, &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{NodeID: node.id, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", port.ErrIO, node.locator, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: read %s: empty response", port.ErrIO, node.locator)
	}

	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return nil, fmt.Errorf("%w: read %s: %v", port.ErrIO, node.locator, dv.Status)
	}
	if dv.Value == nil {
		return nil, fmt.Errorf("%w: read %s: no value", port.ErrIO, node.locator)
	}
	return dv.Value.Value(), nil
}

// Write записывает значение в узел с указанным типом
func (s *Session) Write(ctx context.Context, h port.Handle, value any, t entity.VarType) error {
	node, err := s.node(h)
	if err != nil {
		return err
	}

	variant, err := toVariant(value, t)
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", port.ErrType, node.locator, err)
	}

	resp, err := s.client.Write(ctx, &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      node.id,
				AttributeID: ua.AttributeIDValue,
				Value: &ua.DataValue{
					EncodingMask: ua.DataValueValue,
					Value:        variant,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", port.ErrIO, node.locator, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return fmt.Errorf("%w: write %s: empty response", port.ErrIO, node.locator)
	}
	if status := resp.Results[0]; status != ua.StatusOK {
		return fmt.Errorf("%w: write %s: %v", port.ErrIO, node.locator, status)
	}
	return nil
}

// Close закрывает сессию; повторный вызов ничего не делает
func (s *Session) Close(ctx context.Context) error {
	if s.closed.Swap(true) || s.client == nil {
		return nil
	}
	return s.client.Close(ctx)
}

func (s *Session) node(h port.Handle) (nodeHandle, error) {
	if s.closed.Load() {
		return nodeHandle{}, fmt.Errorf("%w: session is closed", port.ErrIO)
	}
	node, ok := h.(nodeHandle)
	if !ok || node.id == nil {
		return nodeHandle{}, fmt.Errorf("%w: foreign handle %T", port.ErrResolve, h)
	}
	return node, nil
}

// toVariant упаковывает значение в Variant нужного типа OPC UA
func toVariant(value any, t entity.VarType) (*ua.Variant, error) {
	v, err := t.Convert(value)
	if err != nil {
		return nil, err
	}
	return ua.NewVariant(v)
}

// Проверка реализации интерфейсов
var (
	_ port.DeviceDialer  = (*Dialer)(nil)
	_ port.DeviceSession = (*Session)(nil)
)
