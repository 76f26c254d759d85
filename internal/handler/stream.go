package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shroukgbr89/parallel/api"
	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/model"
	"github.com/shroukgbr89/parallel/internal/task/runner"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// StreamEvent websocket 推送的事件
//
// Type 取值:
//   - "state"  一侧的执行状态变化
//   - "sample" 一侧的实时采样点
//   - "result" 对比完成，Data 为 CompareResp
//   - "error"  对比失败，Code/Message 与 HTTP 接口一致
type StreamEvent struct {
	Type    string                `json:"type"`
	Leg     model.Leg             `json:"leg,omitempty"`
	State   model.RunState        `json:"state,omitempty"`
	Sample  *model.ResourceSample `json:"sample,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Code    api.ResCode           `json:"code,omitempty"`
	Message string                `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamWriter 两侧的回调并发写同一连接
type streamWriter struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (w *streamWriter) send(ev StreamEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := w.conn.WriteJSON(ev); err != nil {
		zap.L().Debug("websocket 写入失败", zap.Error(err))
		w.closed = true
	}
}

// CompareStreamHandler 通过 websocket 执行对比：客户端发送一个 CompareReq，
// 服务端推送两侧的状态和采样点，最后推送 result 或 error
func (h *Handler) CompareStreamHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
	var req v1.CompareReq
	if err := conn.ReadJSON(&req); err != nil {
		zap.L().Debug("读取对比请求失败", zap.Error(err))
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// 客户端断开时取消执行
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	w := &streamWriter{conn: conn}
	legOpts := func(leg model.Leg) []runner.Option {
		return []runner.Option{
			runner.WithStateHook(func(state model.RunState, err error) {
				ev := StreamEvent{Type: "state", Leg: leg, State: state}
				if err != nil {
					ev.Message = err.Error()
				}
				w.send(ev)
			}),
			runner.WithSampleObserver(func(sample model.ResourceSample) {
				w.send(StreamEvent{Type: "sample", Leg: leg, Sample: &sample})
			}),
		}
	}

	res, err := h.bench.Compare(ctx, &req, legOpts)
	if err != nil {
		code, msg, data := api.ErrorPayload(err)
		w.send(StreamEvent{Type: "error", Code: code, Message: msg, Data: data})
		return
	}
	w.send(StreamEvent{Type: "result", Data: v1.NewCompareResp(res)})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}
