package language

import (
	"strings"

	"github.com/shroukgbr89/parallel/internal/model"
)

// DetectLanguageByExtension 根据文件扩展名判断编程语言，无法识别时返回空串
func DetectLanguageByExtension(filename string) model.Language {
	// 获取文件扩展名
	ext := getFileExtension(filename)

	switch strings.ToLower(ext) {
	case ".cpp", ".cxx", ".cc", ".c++", ".hpp":
		return model.LanguageCpp
	case ".py", ".py3":
		return model.LanguagePython
	default:
		return ""
	}
}

// DetectLanguageByContent 根据代码特征粗略判断语言，只作为提示，不保证准确
func DetectLanguageByContent(code string) model.Language {
	switch {
	case strings.Contains(code, "#include") || strings.Contains(code, "using namespace") || strings.Contains(code, "int main"):
		return model.LanguageCpp
	case strings.Contains(code, "import java.") || strings.Contains(code, "public class"):
		// Java 不在支持范围内
		return ""
	case strings.Contains(code, "mpi4py") || strings.Contains(code, "def ") || strings.Contains(code, "import "):
		return model.LanguagePython
	default:
		return ""
	}
}

// Detect 先按扩展名，再按内容判断
func Detect(filename, code string) (model.Language, bool) {
	if lang := DetectLanguageByExtension(filename); lang != "" {
		return lang, true
	}
	if lang := DetectLanguageByContent(code); lang != "" {
		return lang, true
	}
	return "", false
}

// getFileExtension 获取文件扩展名
func getFileExtension(filename string) string {
	for i := len(filename) - 1; i >= 0 && !isPathSeparator(filename[i]); i-- {
		if filename[i] == '.' {
			return filename[i:]
		}
	}
	return ""
}

// isPathSeparator 检查字符是否为路径分隔符
func isPathSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
