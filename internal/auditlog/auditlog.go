package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

// Entry 每处理一次回调追加一条审计记录
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Event     string    `json:"event"`
	Reference string    `json:"reference"`
	PaymentID int       `json:"payment_id"`
	Status    string    `json:"status"`
}

// Sink 审计日志写入端
type Sink interface {
	Append(entry *Entry)
}

// FileSink 追加写本地 JSONL 文件，每行一条记录
// 写入失败只记日志不报错，可观测性不能阻塞业务事务
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("创建审计日志目录失败: %w", err)
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Append(entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		util.Logger.Error("序列化审计记录失败", zap.Error(err))
		return
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		util.Logger.Error("打开审计日志文件失败",
			zap.Error(err),
			zap.String("path", s.path))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		util.Logger.Error("写入审计日志失败", zap.Error(err))
	}
}
