// Package naming содержит общие для клиента и сервера правила именования заметок и изображений.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NoteExt - расширение файлов заметок.
const NoteExt = ".md"

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// Sanitize заменяет каждую последовательность пробельных символов одним "_".
// Функция идемпотентна.
func Sanitize(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_")
}

// Base возвращает последний элемент пути, используя как "/", так и "\" в качестве разделителя.
func Base(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsNote сообщает, является ли файл заметкой.
func IsNote(path string) bool {
	return strings.EqualFold(filepath.Ext(path), NoteExt)
}

// IsImage сообщает, является ли файл изображением одного из поддерживаемых форматов.
func IsImage(path string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Title возвращает имя заметки без расширения ".md".
func Title(name string) string {
	if IsNote(name) {
		return name[:len(name)-len(NoteExt)]
	}
	return name
}
