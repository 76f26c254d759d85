package compiler

import (
	"context"
	"strings"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
)

// CppCompiler C++编译器
type CppCompiler struct {
	GPPPath string
	Flags   string
	OpenMP  bool // 追加 -fopenmp
	Timeout time.Duration
}

// Args 返回完整的编译参数
func (c *CppCompiler) Args(codePath, exePath string) []string {
	// 默认编译选项
	flags := c.Flags
	if flags == "" {
		flags = constants.GPPDefaultFlags
	}

	args := strings.Fields(flags)
	if c.OpenMP {
		args = append(args, constants.OpenMPFlag)
	}
	// 源文件放在最后，run 以它所在目录作为工作目录
	return append(args, "-o", exePath, codePath)
}

// Compile 编译C++代码
func (c *CppCompiler) Compile(ctx context.Context, codePath, exePath string) (string, error) {
	path := c.GPPPath
	if path == "" {
		path = constants.GPPPath
	}
	diagnostic, err := run(ctx, c.Timeout, path, c.Args(codePath, exePath)...)
	logResult("C++编译", codePath, diagnostic, err)
	return diagnostic, err
}
