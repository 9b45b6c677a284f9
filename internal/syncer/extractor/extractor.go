// Package extractor находит встроенные изображения в тексте заметки.
package extractor

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"notesync/pkg/logger"
	"notesync/pkg/naming"
)

var embedPattern = regexp.MustCompile(`!\[\[(.*?)\]\]`)

// Константы для логирования.
const (
	LogAssetMissing  = "embedded image not found, skipping"
	LogAssetResolved = "embedded image resolved"
	LogNotImage      = "embed is not an image, skipping"
	LogOutsideVault  = "embedded path escapes vault, skipping"
)

// Asset - найденное на диске изображение, на которое ссылается заметка.
type Asset struct {
	Reference string
	Path      string
	Data      []byte
}

// References возвращает ссылки вида ![[ref]] в порядке появления без повторов.
// Суффикс размера или псевдонима после "|" отбрасывается.
func References(content string) []string {
	matches := embedPattern.FindAllStringSubmatch(content, -1)

	refs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ref := m[1]
		if i := strings.IndexByte(ref, '|'); i >= 0 {
			ref = ref[:i]
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// Extractor читает изображения, на которые ссылаются заметки хранилища.
type Extractor struct {
	root string
}

// New создает Extractor для хранилища root. Относительный root приводится к абсолютному.
func New(root string) *Extractor {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Extractor{root: abs}
}

// inVault сообщает, лежит ли path внутри корня хранилища.
func (e *Extractor) inVault(path string) bool {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Resolve ищет каждую ссылку сначала относительно корня хранилища, затем относительно
// каталога заметки. Ненайденные изображения, ссылки на другие типы файлов и пути за
// пределами хранилища пропускаются.
func (e *Extractor) Resolve(ctx context.Context, notePath, content string) []Asset {
	log := logger.Log(ctx).With(zap.String("method", "Extractor.Resolve"), zap.String("note", notePath))

	refs := References(content)
	assets := make([]Asset, 0, len(refs))
	for _, ref := range refs {
		if !naming.IsImage(ref) {
			log.Debug(ctx, LogNotImage, zap.String("reference", ref))
			continue
		}

		candidates := []string{
			filepath.Join(e.root, filepath.FromSlash(ref)),
			filepath.Join(filepath.Dir(notePath), filepath.FromSlash(ref)),
		}

		found := false
		for _, candidate := range candidates {
			if !e.inVault(candidate) {
				log.Warn(ctx, LogOutsideVault, zap.String("reference", ref), zap.String("path", candidate))
				continue
			}
			data, err := os.ReadFile(candidate)
			if err != nil {
				continue
			}
			log.Debug(ctx, LogAssetResolved, zap.String("reference", ref), zap.String("path", candidate))
			assets = append(assets, Asset{Reference: ref, Path: candidate, Data: data})
			found = true
			break
		}
		if !found {
			log.Warn(ctx, LogAssetMissing, zap.String("reference", ref))
		}
	}
	return assets
}
