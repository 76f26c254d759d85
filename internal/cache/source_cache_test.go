package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shroukgbr89/parallel/internal/conf"
)

type fakeFetcher struct {
	objects map[string]string
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, object string) ([]byte, error) {
	f.calls++
	content, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, errors.New("the specified key does not exist")
	}
	return []byte(content), nil
}

func newTestCache(t *testing.T, fetcher Fetcher, ttl time.Duration, maxDiskUsage int64) *SourceCache {
	t.Helper()
	c, err := NewSourceCache(&conf.CacheConfig{
		Dir:            t.TempDir(),
		TTL:            ttl,
		MaxDiskUsage:   maxDiskUsage,
		CleanFrequency: 10 * time.Second,
	}, fetcher)
	if err != nil {
		t.Fatalf("NewSourceCache failed: %v", err)
	}
	return c
}

// cachedContent 不经过对象存储读取缓存
func cachedContent(c *SourceCache, bucket, object string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loadLocked(generateKey(bucket, object))
}

func TestSourceCache_BasicOperations(t *testing.T) {
	cache := newTestCache(t, nil, 5*time.Second, 100*1024*1024)

	bucket := "sources"
	object := "jobs/sum.cpp"
	content := "int main() { return 0; }"

	filePath, err := cache.Set(bucket, object, content)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// 对象名中的目录不会出现在缓存文件名中
	if filepath.Dir(filePath) != cache.cacheDir {
		t.Errorf("cache file should live in cache dir, got %s", filePath)
	}

	got, exists := cachedContent(cache, bucket, object)
	if !exists {
		t.Fatal("entry should be cached after Set")
	}
	if got != content {
		t.Errorf("Expected content %q, got %q", content, got)
	}
}

func TestSourceCache_Load(t *testing.T) {
	fetcher := &fakeFetcher{objects: map[string]string{"sources/a.py": "print('a')\n"}}
	cache := newTestCache(t, fetcher, 5*time.Second, 100*1024*1024)

	for i := 0; i < 3; i++ {
		content, hit, err := cache.Load(context.Background(), "sources", "a.py")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if content != "print('a')\n" {
			t.Errorf("unexpected content %q", content)
		}
		if hit != (i > 0) {
			t.Errorf("round %d: hit = %v", i, hit)
		}
	}
	// 只有第一次访问对象存储
	if fetcher.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.calls)
	}

	if _, _, err := cache.Load(context.Background(), "sources", "missing.py"); err == nil {
		t.Error("Load should fail for a missing object")
	}
}

func TestSourceCache_LoadAfterEviction(t *testing.T) {
	fetcher := &fakeFetcher{objects: map[string]string{
		"b/serial.py":   "print('serial 20b')\n",
		"b/parallel.py": "print('parallel 22b')\n",
	}}
	// 两个对象放不下，加载第二个会淘汰第一个
	cache := newTestCache(t, fetcher, 5*time.Second, 30)

	serial, _, err := cache.Load(context.Background(), "b", "serial.py")
	if err != nil {
		t.Fatalf("Load serial failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	parallel, _, err := cache.Load(context.Background(), "b", "parallel.py")
	if err != nil {
		t.Fatalf("Load parallel failed: %v", err)
	}
	if _, exists := cachedContent(cache, "b", "serial.py"); exists {
		t.Fatal("serial entry should have been evicted")
	}

	// 已返回的内容不受淘汰影响
	if serial != "print('serial 20b')\n" || parallel != "print('parallel 22b')\n" {
		t.Errorf("unexpected contents %q / %q", serial, parallel)
	}

	// 被淘汰的对象重新下载
	again, hit, err := cache.Load(context.Background(), "b", "serial.py")
	if err != nil || hit || again != serial {
		t.Errorf("reload: content=%q hit=%v err=%v", again, hit, err)
	}
	if fetcher.calls != 3 {
		t.Errorf("Expected 3 fetches, got %d", fetcher.calls)
	}
}

func TestSourceCache_NoFetcher(t *testing.T) {
	cache := newTestCache(t, nil, 5*time.Second, 1024)
	if _, _, err := cache.Load(context.Background(), "b", "o"); err == nil {
		t.Error("Load should fail without object storage")
	}
}

func TestSourceCache_DiskSpaceManagement(t *testing.T) {
	cache := newTestCache(t, nil, 5*time.Second, 40) // 40字节限制

	if _, err := cache.Set("b", "first", "small content 1"); err != nil {
		t.Fatalf("First set should succeed: %v", err)
	}
	time.Sleep(time.Millisecond)

	// 两个文件加起来超过限制，最久未使用的被淘汰
	if _, err := cache.Set("b", "second", "second content, 30 bytes long"); err != nil {
		t.Fatalf("Second set should evict the first: %v", err)
	}
	if _, exists := cachedContent(cache, "b", "first"); exists {
		t.Error("first entry should have been evicted")
	}
	if _, exists := cachedContent(cache, "b", "second"); !exists {
		t.Error("second entry should be cached")
	}

	// 单个文件超过上限
	if _, err := cache.Set("b", "huge", string(make([]byte, 41))); err == nil {
		t.Error("Set should fail when content exceeds the disk limit")
	}
}

func TestSourceCache_Expired(t *testing.T) {
	cache := newTestCache(t, nil, 100*time.Millisecond, 100*1024*1024)

	filePath, err := cache.Set("b", "o", "hello world test content")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, exists := cachedContent(cache, "b", "o"); !exists {
		t.Fatal("entry should be cached before expiration")
	}

	// 等待缓存过期
	time.Sleep(200 * time.Millisecond)

	if _, exists := cachedContent(cache, "b", "o"); exists {
		t.Fatal("entry should be gone after expiration")
	}
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Error("expired file should be removed")
	}
	if cache.currentUsage != 0 {
		t.Errorf("usage should be 0 after expiration, got %d", cache.currentUsage)
	}
}

func TestSourceCache_CleanExpired(t *testing.T) {
	cache := newTestCache(t, nil, 50*time.Millisecond, 100*1024*1024)
	if _, err := cache.Set("b", "o", "content"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	cache.cleanExpired()

	if stats := cache.GetCacheStats(); stats["cache_size"].(int) != 0 {
		t.Errorf("cache should be empty after cleaning, got %v", stats["cache_size"])
	}
}

func TestSourceCache_FileIntegrity(t *testing.T) {
	cache := newTestCache(t, nil, 5*time.Second, 100*1024*1024)

	content := "original content"
	filePath, err := cache.Set("b", "o", content)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if expected := fmt.Sprintf("%x", md5.Sum([]byte(content))); cache.cache[generateKey("b", "o")].MD5Hash != expected {
		t.Errorf("Expected MD5 %s", expected)
	}

	// 手动修改文件内容
	if err := os.WriteFile(filePath, []byte("modified content"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	// 读取时检测到损坏并删除缓存
	if _, exists := cachedContent(cache, "b", "o"); exists {
		t.Error("corrupted entry should not be returned")
	}
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Error("corrupted file should be removed")
	}
}

func TestSourceCache_GetCacheStats(t *testing.T) {
	cache := newTestCache(t, nil, 5*time.Second, 100*1024*1024)

	stats := cache.GetCacheStats()
	if stats["cache_size"].(int) != 0 {
		t.Errorf("Initial cache size should be 0, got %d", stats["cache_size"])
	}

	if _, err := cache.Set("test-bucket", "o", "test content for stats"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	stats = cache.GetCacheStats()
	if stats["cache_size"].(int) != 1 {
		t.Errorf("Cache size should be 1, got %d", stats["cache_size"])
	}
	if stats["cache_dir"].(string) != cache.cacheDir {
		t.Errorf("Cache dir mismatch")
	}
	if stats["max_usage"].(int64) != cache.maxDiskUsage {
		t.Errorf("Max usage mismatch")
	}

	cache.Clear()
	if stats := cache.GetCacheStats(); stats["current_usage"].(int64) != 0 {
		t.Errorf("usage should be 0 after Clear")
	}
}
