package cloud

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/photonlab/fdtdbench/internal/ctxlog"
)

type progressEvent struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// streamProgress opens the task's websocket progress feed and logs events
// until the returned stop function is called. The feed is best effort: a
// server without it, or any stream error, only downgrades to poll-only
// logging.
func (b *Backend) streamProgress(ctx context.Context, taskID string) (stop func()) {
	logger := ctxlog.FromContext(ctx).With("task_id", taskID)
	wsURL := toWebsocketURL(b.BaseURL) + "/tasks/" + taskID + "/progress"

	header := http.Header{}
	header.Set("X-Api-Key", b.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		logger.Debug("progress stream unavailable, relying on polling", "error", err)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev progressEvent
			if json.Unmarshal(msg, &ev) != nil {
				continue
			}
			logger.Info("remote progress", "status", ev.Status, "progress", ev.Progress, "message", ev.Message)
		}
	}()

	return func() {
		conn.Close()
		<-done
	}
}

func toWebsocketURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
