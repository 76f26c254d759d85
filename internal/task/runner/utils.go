package runner

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
)

// resolveTimeout 未指定时使用默认超时，且不超过上限
func resolveTimeout(requested, def, max time.Duration) time.Duration {
	if max <= 0 {
		max = constants.MaxRunTimeout
	}
	if def <= 0 {
		def = constants.DefaultRunTimeout
	}
	timeout := requested
	if timeout <= 0 {
		timeout = def
	}
	if timeout > max {
		timeout = max
	}
	return timeout
}

// limitedBuffer 只保留前 limit 字节的输出，超出部分计数后丢弃
type limitedBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int64
	dropped int64
}

func newLimitedBuffer(limit int64) *limitedBuffer {
	if limit <= 0 {
		limit = constants.MaxOutputSize
	}
	return &limitedBuffer{limit: limit}
}

// Write 总是报告全部写入成功，避免子进程因管道写失败而退出
func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remain := b.limit - int64(b.buf.Len())
	if remain <= 0 {
		b.dropped += int64(len(p))
		return len(p), nil
	}
	if int64(len(p)) > remain {
		b.buf.Write(p[:remain])
		b.dropped += int64(len(p)) - remain
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// String 返回已保留的输出，截断时附加提示
func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropped == 0 {
		return b.buf.String()
	}
	return b.buf.String() + fmt.Sprintf("\n... (输出被截断，总长度: %d)", int64(b.buf.Len())+b.dropped)
}

// Truncated 输出是否被截断
func (b *limitedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped > 0
}

// sanitizeError 清理错误信息
func sanitizeError(errMsg string) string {
	// 限制错误信息大小
	if len(errMsg) > constants.MaxErrorSize {
		return errMsg[:constants.MaxErrorSize] + "..."
	}
	return errMsg
}
