package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/csvload"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

type staticSource map[string]*chart.Session

func (s staticSource) Chart(ctx context.Context, sessionID string) (*chart.Session, error) {
	cs, ok := s[sessionID]
	if !ok {
		return nil, errors.New("session not found")
	}
	return cs, nil
}

func newRadarChart(t *testing.T) *chart.Session {
	t.Helper()
	parser := valueparse.Invariant()
	table, err := csvload.LoadReader("run1.csv",
		strings.NewReader("time_ms,radar_voltage,radar_adc\n0,1.0,10\n10,2.5,12\n20,1.2,9\n"), parser)
	require.NoError(t, err)

	cs := chart.NewSession(parser)
	_, err = cs.LoadTable(table)
	require.NoError(t, err)
	return cs
}

func startHub(t *testing.T, source ChartSource) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(source, 10)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHub_HoverFrame(t *testing.T) {
	_, srv := startHub(t, staticSource{"s1": newRadarChart(t)})
	conn := dial(t, srv, "s1")

	require.NoError(t, conn.WriteJSON(HoverRequest{X: 220, Y: 100, Width: 440, Height: 200}))

	frame := readFrame(t, conn)
	assert.Equal(t, TypeHover, frame.Type)
	assert.Equal(t, "s1", frame.SessionID)
	require.NotNil(t, frame.Hover)
	assert.InDelta(t, 0.01, frame.Hover.DataX, 1e-9)
	assert.Len(t, frame.Hover.Values, 2)
	require.NotNil(t, frame.Hover.Snap)
	assert.Equal(t, "run1 - radar_adc", frame.Hover.Snap.Name)
}

func TestHub_InvalidFrames(t *testing.T) {
	_, srv := startHub(t, staticSource{"s1": newRadarChart(t)})
	conn := dial(t, srv, "s1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame := readFrame(t, conn)
	assert.Equal(t, TypeError, frame.Type)

	require.NoError(t, conn.WriteJSON(HoverRequest{X: 1, Y: 1}))
	frame = readFrame(t, conn)
	assert.Equal(t, TypeError, frame.Type)
	assert.Contains(t, frame.Error, "width")
}

func TestHub_NotifyReachesOnlyItsSession(t *testing.T) {
	hub, srv := startHub(t, staticSource{"s1": newRadarChart(t), "s2": newRadarChart(t)})
	c1 := dial(t, srv, "s1")
	c2 := dial(t, srv, "s2")

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.NotifySession("s2", 4)

	frame := readFrame(t, c2)
	assert.Equal(t, TypeUpdate, frame.Type)
	assert.Equal(t, 4, frame.SeriesCount)

	require.NoError(t, c1.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := c1.ReadMessage()
	assert.Error(t, err)
}

func TestHub_RejectsUnknownSession(t *testing.T) {
	_, srv := startHub(t, staticSource{})

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session_id=ghost"
	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t, staticSource{"s1": newRadarChart(t)})
	conn := dial(t, srv, "s1")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
