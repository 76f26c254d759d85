package compiler

import (
	"context"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
)

// PythonCompiler Python解释器（无需编译）
type PythonCompiler struct {
	PythonPath string
	Timeout    time.Duration
}

// Compile Python不需要编译，只用 py_compile 检查语法
func (p *PythonCompiler) Compile(ctx context.Context, codePath, _ string) (string, error) {
	path := p.PythonPath
	if path == "" {
		path = constants.PythonPath
	}
	diagnostic, err := run(ctx, p.Timeout, path, "-m", "py_compile", codePath)
	logResult("Python语法检查", codePath, diagnostic, err)
	return diagnostic, err
}
