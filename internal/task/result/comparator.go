package result

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxDiffLines 差异输出最多保留的行数
const maxDiffLines = 200

type Comparator struct {
	strict bool
}

func NewComparator(strict bool) *Comparator {
	return &Comparator{
		strict: strict,
	}
}

// Compare 比较串行与并行两侧的输出
func (c *Comparator) Compare(serialOutput, parallelOutput string) bool {
	if c.strict {
		return normalizeString(serialOutput) == normalizeString(parallelOutput)
	}
	// 模糊比较（忽略多余空格和换行）
	serial := strings.Fields(normalizeString(serialOutput))
	parallel := strings.Fields(normalizeString(parallelOutput))
	if len(serial) != len(parallel) {
		return false
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			return false
		}
	}
	return true
}

// Diff 按行生成差异，"-" 为串行独有，"+" 为并行独有；输出一致时返回空串
func (c *Comparator) Diff(serialOutput, parallelOutput string) string {
	serial := normalizeString(serialOutput)
	parallel := normalizeString(parallelOutput)
	if serial == parallel {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(serial+"\n", parallel+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var (
		sb    strings.Builder
		count int
	)
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			if count >= maxDiffLines {
				sb.WriteString("...\n")
				return sb.String()
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			count++
		}
	}
	return sb.String()
}

// normalizeString 清理字符串
func normalizeString(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
