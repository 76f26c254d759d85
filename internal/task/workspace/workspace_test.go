package workspace

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shroukgbr89/parallel/internal/model"
	perrors "github.com/shroukgbr89/parallel/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateUnique(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	const n = 32
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		dirs = make(map[string]struct{})
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Allocate(model.LanguagePython)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			dirs[h.Dir] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, dirs, n)
}

func TestHandleWriteAndRelease(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	h, err := m.Allocate(model.LanguageCpp)
	require.NoError(t, err)
	assert.Equal(t, "main.cpp", filepath.Base(h.SourcePath))

	require.NoError(t, h.Write("int main() {}\n"))
	data, err := os.ReadFile(h.SourcePath)
	require.NoError(t, err)
	assert.Equal(t, "int main() {}\n", string(data))

	require.NoError(t, h.Release())
	assert.NoDirExists(t, h.Dir)
	// 重复释放不报错
	assert.NoError(t, h.Release())
}

func TestHandleWriteAfterRelease(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)
	h, err := m.Allocate(model.LanguagePython)
	require.NoError(t, err)
	require.NoError(t, h.Release())

	err = h.Write("print(1)\n")
	assert.True(t, perrors.IsErrorCode(err, perrors.ErrCodeIO))
}

func TestKeepWorkspace(t *testing.T) {
	m, err := NewManager(t.TempDir(), true)
	require.NoError(t, err)

	h, err := m.Allocate(model.LanguagePython)
	require.NoError(t, err)
	require.NoError(t, h.Release())
	assert.DirExists(t, h.Dir)
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, false)
	require.NoError(t, err)

	stale, err := m.Allocate(model.LanguagePython)
	require.NoError(t, err)
	fresh, err := m.Allocate(model.LanguagePython)
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale.Dir, old, old))

	// 非工作区目录不受影响
	other := filepath.Join(root, "other")
	require.NoError(t, os.Mkdir(other, 0755))
	require.NoError(t, os.Chtimes(other, old, old))

	removed, err := m.Sweep(30 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale.Dir)
	assert.DirExists(t, fresh.Dir)
	assert.DirExists(t, other)
}
