package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"
	file_util "github.com/shroukgbr89/parallel/internal/util/file"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager 工作区管理器，为每次执行分配独占的临时目录
type Manager struct {
	root string
	keep bool
}

// Handle 一次执行独占的工作区
type Handle struct {
	ID         string
	Dir        string
	SourcePath string
	Language   model.Language

	keep    bool
	release sync.Once
}

// NewManager 创建工作区管理器，root 为空时使用系统临时目录
func NewManager(root string, keep bool) (*Manager, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, perrors.NewIOError(fmt.Sprintf("创建工作区根目录失败: %s", root), err)
	}
	return &Manager{root: root, keep: keep}, nil
}

// Root 返回工作区根目录
func (m *Manager) Root() string {
	return m.root
}

// SourceFileName 返回语言对应的源文件名
func SourceFileName(lang model.Language) string {
	switch lang {
	case model.LanguageCpp:
		return constants.CppCodeFileName
	case model.LanguagePython:
		return constants.PyCodeFileName
	default:
		return "main.txt"
	}
}

// Allocate 分配新的工作区，每次调用目录名都唯一，并发请求之间不会共享路径
func (m *Manager) Allocate(lang model.Language) (*Handle, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, constants.WorkspaceDirPrefix+id)
	// Mkdir 而不是 MkdirAll：目录已存在说明发生了冲突，直接失败
	if err := os.Mkdir(dir, constants.WorkspaceDirPerm); err != nil {
		zap.L().Error("创建工作区失败", zap.String("dir", dir), zap.Error(err))
		return nil, perrors.NewIOError("创建工作区失败", err)
	}

	zap.L().Debug("创建工作区", zap.String("dir", dir), zap.String("language", lang.String()))
	return &Handle{
		ID:         id,
		Dir:        dir,
		SourcePath: filepath.Join(dir, SourceFileName(lang)),
		Language:   lang,
		keep:       m.keep,
	}, nil
}

// Write 写入源代码
func (h *Handle) Write(sourceCode string) error {
	if err := file_util.WriteFileSync(h.SourcePath, []byte(sourceCode), constants.CodeFilePerm); err != nil {
		zap.L().Error("写入代码文件失败", zap.String("path", h.SourcePath), zap.Error(err))
		return perrors.NewIOError("写入代码文件失败", err)
	}
	return nil
}

// Path 返回工作区内的文件路径
func (h *Handle) Path(name string) string {
	return filepath.Join(h.Dir, name)
}

// Release 回收工作区，可重复调用
func (h *Handle) Release() error {
	var err error
	h.release.Do(func() {
		if h.keep {
			zap.L().Info("保留工作区", zap.String("dir", h.Dir))
			return
		}
		if err = os.RemoveAll(h.Dir); err != nil {
			zap.L().Warn("清理工作区失败", zap.String("dir", h.Dir), zap.Error(err))
			return
		}
		zap.L().Debug("成功清理工作区", zap.String("dir", h.Dir))
	})
	return err
}

// Sweep 清理超过 maxAge 的残留工作区（进程崩溃等情况下未被回收的目录），返回清理数量
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, perrors.NewIOError("读取工作区根目录失败", err)
	}

	removed := 0
	deadline := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), constants.WorkspaceDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(deadline) {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			zap.L().Warn("清理残留工作区失败", zap.String("dir", dir), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		zap.L().Info("清理残留工作区", zap.Int("count", removed))
	}
	return removed, nil
}

// StartJanitor 后台定期清理残留工作区，ctx 取消后退出
func (m *Manager) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = m.Sweep(maxAge)
			}
		}
	}()
}
