// Package web отдаёт последний кадр станции по HTTP: страница, снимок, MJPEG-поток и статус.
package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	app "plc-vision/internal/application"
	"plc-vision/internal/domain/entity"
)

const (
	streamBoundary = "frame"
	streamInterval = 100 * time.Millisecond
)

const indexPage = `<!doctype html>
<html>
<head>
    <meta charset="utf-8">
    <title>Камера</title>
    <style>
        html,body {margin:0;height:100%;background:#000}
        img {width:100%;height:100%;object-fit:contain}
    </style>
</head>
<body>
    <img id="cam" src="/snapshot" alt="camera">
    <script>
        setInterval(function(){
            var img = document.getElementById("cam");
            img.src = "/snapshot?t=" + Date.now();
        }, 200);
    </script>
</body>
</html>
`

// Station то, что серверу нужно от приложения
type Station interface {
	Status(ctx context.Context) (*app.StationStatus, error)
	Snapshot() ([]byte, uint64, error)
}

// Server HTTP-сервер снимков
type Server struct {
	app     *fiber.App
	addr    string
	station Station
	log     *slog.Logger
	done    chan struct{}
}

// NewServer создаёт сервер и регистрирует маршруты
func NewServer(addr string, station Station, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:    addr,
		station: station,
		log:     logger.With("component", "web"),
		done:    make(chan struct{}),
	}

	a := fiber.New(fiber.Config{
		AppName:               "plc-vision",
		DisableStartupMessage: true,
	})

	a.Get("/", s.handleIndex)
	a.Get("/snapshot", s.handleSnapshot)
	a.Get("/stream", s.handleStream)
	a.Get("/api/status", s.handleStatus)

	s.app = a
	return s
}

// App возвращает fiber-приложение (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// Run слушает адрес до отмены контекста
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web server listening", "url", fmt.Sprintf("http://localhost%s", s.addr))
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		close(s.done)
		sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(sctx)
	}
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(indexPage)
}

func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	data, seq, err := s.station.Snapshot()
	if errors.Is(err, app.ErrNoSnapshot) {
		return c.Status(fiber.StatusServiceUnavailable).SendString("Кадр ещё не готов")
	}
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("X-Frame-Seq", fmt.Sprint(seq))
	return c.Send(data)
}

// handleStream отдаёт multipart/x-mixed-replace; новый кадр уходит только при смене номера.
func (s *Server) handleStream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+streamBoundary)
	c.Set(fiber.HeaderCacheControl, "no-store")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		var last uint64
		ticker := time.NewTicker(streamInterval)
		defer ticker.Stop()

		for {
			data, seq, err := s.station.Snapshot()
			if err == nil && seq != last {
				if err := writePart(w, data); err != nil {
					return
				}
				last = seq
			}

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	})
	return nil
}

func writePart(w *bufio.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

type linkJSON struct {
	Endpoint            string `json:"endpoint"`
	Connected           bool   `json:"connected"`
	Reconnects          int    `json:"reconnects"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastError           string `json:"last_error,omitempty"`
	ChangedAt           string `json:"changed_at,omitempty"`
}

type inspectionJSON struct {
	At        string `json:"at"`
	FrameSeq  uint64 `json:"frame_seq"`
	Result    string `json:"result"`
	ErrorCode uint16 `json:"error_code"`
	Millis    int64  `json:"duration_ms"`
}

type statusJSON struct {
	Link     linkJSON                `json:"plc"`
	FrameSeq uint64                  `json:"frame_seq"`
	Totals   entity.InspectionTotals `json:"totals"`
	Recent   []inspectionJSON        `json:"recent"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	st, err := s.station.Status(c.UserContext())
	if err != nil {
		return err
	}

	out := statusJSON{
		Link: linkJSON{
			Endpoint:            st.Link.Endpoint,
			Connected:           st.Link.Bound,
			Reconnects:          st.Link.Reconnects,
			ConsecutiveFailures: st.Link.ConsecutiveFailures,
			LastError:           st.Link.LastError,
		},
		FrameSeq: st.FrameSeq,
		Totals:   st.Totals,
		Recent:   make([]inspectionJSON, 0, len(st.Recent)),
	}
	if !st.Link.ChangedAt.IsZero() {
		out.Link.ChangedAt = st.Link.ChangedAt.Format(time.RFC3339)
	}
	for _, r := range st.Recent {
		out.Recent = append(out.Recent, inspectionJSON{
			At:        r.At.Format(time.RFC3339Nano),
			FrameSeq:  r.FrameSeq,
			Result:    r.Result.String(),
			ErrorCode: uint16(r.ErrorCode),
			Millis:    r.Duration.Milliseconds(),
		})
	}

	return c.JSON(out)
}
