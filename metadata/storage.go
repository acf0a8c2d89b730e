package metadata

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

//go:embed templates/*.json
var embeddedTemplates embed.FS

// TemplateStorage is where canonical template documents come from. Each
// document is the engine JSON of one workflow, keyed by template name.
type TemplateStorage interface {
	LoadTemplates() (map[model.TemplateName][]byte, error)
}

type fsTemplateStorage struct {
	fsys fs.FS
	dir  string
}

var _ TemplateStorage = new(fsTemplateStorage)

// NewEmbeddedTemplateStorage serves the templates compiled into the binary.
func NewEmbeddedTemplateStorage() TemplateStorage {
	return &fsTemplateStorage{fsys: embeddedTemplates, dir: "templates"}
}

// NewDirTemplateStorage reads <template-name>.json files from dir.
func NewDirTemplateStorage(dir string) TemplateStorage {
	return &fsTemplateStorage{fsys: os.DirFS(dir), dir: "."}
}

func (s *fsTemplateStorage) LoadTemplates() (map[model.TemplateName][]byte, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("error reading templates: %w", err)
	}
	docs := make(map[model.TemplateName][]byte)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name, err := model.ToTemplateName(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(s.fsys, filepath.ToSlash(filepath.Join(s.dir, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("error reading template %s: %w", name, err)
		}
		docs[name] = data
	}
	return docs, nil
}
