package voice

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

const writeTimeout = 10 * time.Second

// frameWriter 发送 result / error 帧
type frameWriter interface {
	result(data map[string]any)
	fail(message string)
}

// writer serializes frames onto one connection; gorilla allows a single
// concurrent writer.
type writer struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
	now       func() time.Time
}

func newWriter(conn *websocket.Conn, sessionID string) *writer {
	return &writer{conn: conn, sessionID: sessionID, now: time.Now}
}

func (w *writer) result(data map[string]any) {
	w.send(outgoingMessage{Type: "result", SessionID: w.sessionID, Data: data, Timestamp: w.now().Unix()})
}

func (w *writer) fail(message string) {
	w.send(outgoingMessage{Type: "error", SessionID: w.sessionID, Data: map[string]string{"message": message}, Timestamp: w.now().Unix()})
}

func (w *writer) send(msg outgoingMessage) {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		logger.Component("voice").WithError(err).Warn("marshal frame failed")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(w.now().Add(writeTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Component("voice").WithField("session", w.sessionID).WithError(err).Debug("write frame failed")
	}
}

func (w *writer) ping() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, w.now().Add(writeTimeout))
}
