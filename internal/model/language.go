package model

import (
	"strings"

	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

// Language 受支持的编程语言（封闭集合）
type Language string

const (
	LanguagePython Language = "python"
	LanguageCpp    Language = "cpp"
)

// SupportedLanguages 返回全部受支持语言
func SupportedLanguages() []Language {
	return []Language{LanguagePython, LanguageCpp}
}

var languageAliases = map[string]Language{
	"python":  LanguagePython,
	"python3": LanguagePython,
	"py":      LanguagePython,
	"cpp":     LanguageCpp,
	"c++":     LanguageCpp,
	"cxx":     LanguageCpp,
	"cc":      LanguageCpp,
}

// ParseLanguage 解析语言名称，兼容前端使用的 "Python"、"C++" 写法
func ParseLanguage(name string) (Language, error) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", perrors.NewUnsupportedLanguageError(name)
	}
	return lang, nil
}

// DisplayName 返回用于提示词和界面的语言名称
func (l Language) DisplayName() string {
	switch l {
	case LanguagePython:
		return "Python"
	case LanguageCpp:
		return "C++"
	default:
		return string(l)
	}
}

func (l Language) String() string {
	return string(l)
}
