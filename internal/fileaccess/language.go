package fileaccess

import (
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".rs":   "rust",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".json": "json",
	".md":   "markdown",
	".css":  "css",
	".html": "html",
	".go":   "go",
	".py":   "python",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".sh":   "shell",
	".sql":  "sql",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
}

// Language guesses an editor language id from the file extension.
func Language(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}
