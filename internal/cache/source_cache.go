package cache

import (
	"context"
	md5Package "crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/internal/constants"

	"go.uber.org/zap"
)

// Fetcher 从对象存储下载源码
type Fetcher interface {
	Fetch(ctx context.Context, bucket, object string) ([]byte, error)
}

// SourceCache 源码对象的本地磁盘缓存，按总大小和过期时间淘汰
type SourceCache struct {
	fetcher      Fetcher
	cache        map[string]*cachedFile
	mutex        sync.RWMutex
	ttl          time.Duration
	cleanFreq    time.Duration
	cacheDir     string // 本地缓存目录
	maxDiskUsage int64  // 最大磁盘使用量（字节）
	currentUsage int64  // 当前磁盘使用量
}

type cachedFile struct {
	key        string
	filePath   string    // 缓存文件的路径
	expireTime time.Time // 过期时间
	size       int64     // 文件大小
	accessTime time.Time // 最后访问时间
	MD5Hash    string    // 文件的MD5哈希值
}

// NewSourceCache 创建源码缓存
func NewSourceCache(cfg *conf.CacheConfig, fetcher Fetcher) (*SourceCache, error) {
	cacheDir := cfg.Dir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), constants.CacheDirName)
	}
	if err := os.MkdirAll(cacheDir, constants.CacheDirPerm); err != nil {
		return nil, fmt.Errorf("create cache dir fail: %w", err)
	}

	c := &SourceCache{
		fetcher:      fetcher,
		cache:        make(map[string]*cachedFile),
		ttl:          cfg.TTL,
		cleanFreq:    cfg.CleanFrequency,
		cacheDir:     cacheDir,
		maxDiskUsage: cfg.MaxDiskUsage,
	}
	if c.ttl <= 0 {
		c.ttl = constants.DefaultCacheTTL
	}
	if c.cleanFreq <= 0 {
		c.cleanFreq = constants.DefaultCleanFrequency
	}
	if c.maxDiskUsage <= 0 {
		c.maxDiskUsage = constants.DefaultMaxDiskUsage
	}
	return c, nil
}

// StartCleaner 启动清理协程，ctx 取消后退出
func (c *SourceCache) StartCleaner(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cleanFreq)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanExpired()
			}
		}
	}()
}

// contentMD5 计算内容的MD5哈希值
func contentMD5(content []byte) string {
	return fmt.Sprintf("%x", md5Package.Sum(content))
}

// loadLocked 读取有效的缓存内容，过期、丢失或损坏的条目会被移除，调用方持有写锁。
// 内容在锁内读出，返回后条目被淘汰也不影响调用方
func (c *SourceCache) loadLocked(key string) (string, bool) {
	cached, exists := c.cache[key]
	if !exists {
		return "", false
	}

	// 检查是否过期
	if time.Now().After(cached.expireTime) {
		c.removeLocked(cached)
		return "", false
	}

	// 检查文件是否仍然存在并且未被修改
	content, err := os.ReadFile(cached.filePath)
	if err != nil || contentMD5(content) != cached.MD5Hash {
		c.removeLocked(cached)
		return "", false
	}

	cached.accessTime = time.Now()
	return string(content), true
}

// checkAndFreeSpace 检查磁盘空间并在必要时淘汰最久未使用的文件，调用方持有写锁
func (c *SourceCache) checkAndFreeSpace(newFileSize int64) error {
	if c.currentUsage+newFileSize > c.maxDiskUsage {
		files := make([]*cachedFile, 0, len(c.cache))
		for _, file := range c.cache {
			files = append(files, file)
		}
		sort.Slice(files, func(i, j int) bool {
			return files[i].accessTime.Before(files[j].accessTime)
		})

		for _, file := range files {
			if c.currentUsage+newFileSize <= c.maxDiskUsage {
				break
			}
			c.removeLocked(file)
		}
	}

	// 检查是否仍有足够空间
	if c.currentUsage+newFileSize > c.maxDiskUsage {
		return fmt.Errorf("not enough disk space available")
	}
	return nil
}

// Set 添加对象内容到缓存，返回缓存文件路径
func (c *SourceCache) Set(bucket, object, content string) (string, error) {
	key := generateKey(bucket, object)
	md5Hash := contentMD5([]byte(content))
	// 对象名可能含有路径分隔符，文件名使用键的哈希
	cacheFilePath := filepath.Join(c.cacheDir, fmt.Sprintf("%x", md5Package.Sum([]byte(key))))

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// 如果已有缓存，先删除旧文件
	if old, exists := c.cache[key]; exists {
		c.removeLocked(old)
	}
	if err := c.checkAndFreeSpace(int64(len(content))); err != nil {
		return "", err
	}
	if err := os.WriteFile(cacheFilePath, []byte(content), 0644); err != nil {
		return "", err
	}

	now := time.Now()
	c.cache[key] = &cachedFile{
		key:        key,
		filePath:   cacheFilePath,
		expireTime: now.Add(c.ttl),
		size:       int64(len(content)),
		accessTime: now,
		MD5Hash:    md5Hash,
	}
	c.currentUsage += int64(len(content))
	return cacheFilePath, nil
}

// generateKey 生成缓存键
func generateKey(bucket, object string) string {
	return fmt.Sprintf("%s:%s", bucket, object)
}

// cleanExpired 清理过期的缓存项
func (c *SourceCache) cleanExpired() {
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, cached := range c.cache {
		if now.After(cached.expireTime) {
			c.removeLocked(cached)
		}
	}
}

// removeLocked 删除缓存条目及其文件，调用方持有写锁
func (c *SourceCache) removeLocked(cached *cachedFile) {
	os.Remove(cached.filePath)
	c.currentUsage -= cached.size
	delete(c.cache, cached.key)
}

// Load 获取对象内容，hit 表示命中本地缓存。未命中时从对象存储下载并写入缓存
func (c *SourceCache) Load(ctx context.Context, bucket, object string) (content string, hit bool, err error) {
	key := generateKey(bucket, object)
	c.mutex.Lock()
	content, hit = c.loadLocked(key)
	c.mutex.Unlock()
	if hit {
		zap.L().Debug("源码缓存命中", zap.String("bucket", bucket), zap.String("object", object))
		return content, true, nil
	}
	if c.fetcher == nil {
		return "", false, fmt.Errorf("object storage is not configured")
	}

	// 缓存未命中，从对象存储下载
	data, err := c.fetcher.Fetch(ctx, bucket, object)
	if err != nil {
		return "", false, err
	}
	// 写缓存失败只影响下次命中
	if _, err := c.Set(bucket, object, string(data)); err != nil {
		zap.L().Warn("写入源码缓存失败", zap.String("bucket", bucket), zap.String("object", object), zap.Error(err))
	}
	return string(data), false, nil
}

// Clear 清空所有缓存，服务关闭时调用
func (c *SourceCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, cached := range c.cache {
		os.Remove(cached.filePath)
	}
	c.cache = make(map[string]*cachedFile)
	c.currentUsage = 0
}

// GetCacheStats 获取缓存统计信息
func (c *SourceCache) GetCacheStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return map[string]interface{}{
		"cache_size":    len(c.cache),
		"current_usage": c.currentUsage,
		"max_usage":     c.maxDiskUsage,
		"cache_dir":     c.cacheDir,
		"ttl":           c.ttl.String(),
		"clean_freq":    c.cleanFreq.String(),
		"usage_percent": float64(c.currentUsage) / float64(c.maxDiskUsage) * 100,
	}
}
