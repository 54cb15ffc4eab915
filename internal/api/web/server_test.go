package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	app "plc-vision/internal/application"
	"plc-vision/internal/domain/entity"
	"plc-vision/internal/infrastructure/storage"
)

type fixedLink entity.LinkStatus

func (l fixedLink) Status() entity.LinkStatus { return entity.LinkStatus(l) }

func newTestServer(frames *storage.FrameBuffer, history *storage.MemoryInspectionRepository) *Server {
	station := app.NewStationService(fixedLink{Endpoint: "opc.tcp://plc:4840", Bound: true, Reconnects: 2}, frames, history, 5)
	return NewServer(":0", station, nil)
}

func TestServer_SnapshotNotReady(t *testing.T) {
	srv := newTestServer(storage.NewFrameBuffer(), storage.NewMemoryInspectionRepository(5))

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/snapshot", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Snapshot(t *testing.T) {
	frames := storage.NewFrameBuffer()
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte{0xff, 0xd8, 0xff}})
	srv := newTestServer(frames, storage.NewMemoryInspectionRepository(5))

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/snapshot?t=123", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	require.Equal(t, "1", resp.Header.Get("X-Frame-Seq"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xd8, 0xff}, body)
}

func TestServer_Index(t *testing.T) {
	srv := newTestServer(storage.NewFrameBuffer(), storage.NewMemoryInspectionRepository(5))

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `src="/snapshot"`)
}

func TestServer_Status(t *testing.T) {
	frames := storage.NewFrameBuffer()
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte{1}})
	history := storage.NewMemoryInspectionRepository(5)
	require.NoError(t, history.Save(context.Background(), entity.Inspection{FrameSeq: 1, Result: entity.ResultPass}))
	require.NoError(t, history.Save(context.Background(), entity.Inspection{ErrorCode: entity.ErrNoFrame}))
	srv := newTestServer(frames, history)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out statusJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Link.Connected)
	require.Equal(t, 2, out.Link.Reconnects)
	require.Equal(t, uint64(1), out.FrameSeq)
	require.Equal(t, 2, out.Totals.Total)
	require.Len(t, out.Recent, 2)
	require.Equal(t, uint16(10), out.Recent[0].ErrorCode)
	require.Equal(t, "pass", out.Recent[1].Result)
}

func TestServer_StreamSendsLatestFrame(t *testing.T) {
	frames := storage.NewFrameBuffer()
	frames.Publish(&entity.Frame{Width: 1, Height: 1, Pixels: []byte{0, 0, 0}, Preview: []byte{0xff, 0xd8, 0xff, 0xd9}})
	srv := newTestServer(frames, storage.NewMemoryInspectionRepository(5))

	// после остановки поток отдаёт текущий кадр и завершается
	close(srv.done)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/stream", nil), 2000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: 4\r\n\r\n"), string(body))
	require.Contains(t, string(body), string([]byte{0xff, 0xd8, 0xff, 0xd9}))
	require.Equal(t, 1, strings.Count(string(body), "--frame"))
}

func TestServer_StreamEmptyBeforeFirstFrame(t *testing.T) {
	srv := newTestServer(storage.NewFrameBuffer(), storage.NewMemoryInspectionRepository(5))
	close(srv.done)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/stream", nil), 2000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Empty(t, body)
}
