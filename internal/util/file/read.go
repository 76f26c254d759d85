package file_util

import (
	"fmt"
	"os"
)

// ReadFileToString 读取文件内容，maxSize>0 时拒绝超过该大小的文件
func ReadFileToString(filePath string, maxSize int64) (string, error) {
	if maxSize > 0 {
		info, err := os.Stat(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to stat file %s: %w", filePath, err)
		}
		if info.Size() > maxSize {
			return "", fmt.Errorf("file %s too large: %d bytes (limit %d)", filePath, info.Size(), maxSize)
		}
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return string(data), nil
}
