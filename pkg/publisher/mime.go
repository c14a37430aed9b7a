package publisher

import (
	"mime"
	"path/filepath"
)

func guessContentType(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
