package definition

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/form"
)

type documentFile struct {
	Forms []Form `json:"forms" yaml:"forms"`
}

// LoadFS walks fsys and parses every JSON/YAML definition file. A nil fsys
// yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Form)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		return store.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadPath loads a single definition file or every file under a directory.
func LoadPath(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("definition: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadFS(os.DirFS(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	store := &Store{forms: make(map[string]Form)}
	if err := store.add(data, path); err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes one definition document.
func Parse(data []byte, source string) ([]Form, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	out := make([]Form, 0, len(doc.Forms))
	for _, raw := range doc.Forms {
		def, err := normaliseForm(raw, source)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func (s *Store) add(data []byte, source string) error {
	forms, err := Parse(data, source)
	if err != nil {
		return err
	}
	for _, def := range forms {
		if existing, exists := s.forms[def.ID]; exists {
			return fmt.Errorf("definition: duplicate form %q (files %s and %s)", def.ID, existing.Source, source)
		}
		s.forms[def.ID] = def
	}
	return nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("definition: parse %s: invalid JSON or YAML", source)
}

func normaliseForm(raw Form, source string) (Form, error) {
	def := raw
	def.ID = strings.TrimSpace(raw.ID)
	def.Source = source
	if def.ID == "" {
		return Form{}, fmt.Errorf("definition: file %s defines a form without an id", source)
	}
	if _, err := form.ParseAlign(def.LabelAlign); err != nil {
		return Form{}, fmt.Errorf("definition: form %q (file %s): %w", def.ID, source, err)
	}
	if _, err := form.ParseAlign(def.ControlAlign); err != nil {
		return Form{}, fmt.Errorf("definition: form %q (file %s): %w", def.ID, source, err)
	}
	if _, err := form.ParseTrigger(def.ValidateTrigger); err != nil {
		return Form{}, fmt.Errorf("definition: form %q (file %s): %w", def.ID, source, err)
	}

	seen := make(map[string]struct{}, len(raw.Fields))
	def.Fields = make([]Field, 0, len(raw.Fields))
	for idx, field := range raw.Fields {
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return Form{}, fmt.Errorf("definition: form %q (file %s) field %d has no name", def.ID, source, idx)
		}
		if _, dup := seen[field.Name]; dup {
			return Form{}, fmt.Errorf("definition: form %q (file %s) defines duplicate field %q", def.ID, source, field.Name)
		}
		seen[field.Name] = struct{}{}

		field.Type = strings.ToLower(strings.TrimSpace(field.Type))
		if field.Type == "" {
			field.Type = TypeText
		}
		if !knownType(field.Type) {
			return Form{}, fmt.Errorf("definition: form %q field %q has unknown type %q", def.ID, field.Name, field.Type)
		}
		if _, err := form.ParseTrigger(field.Trigger); err != nil {
			return Form{}, fmt.Errorf("definition: form %q field %q: %w", def.ID, field.Name, err)
		}
		if _, err := form.ParseAlign(field.Align); err != nil {
			return Form{}, fmt.Errorf("definition: form %q field %q: %w", def.ID, field.Name, err)
		}
		if field.Label == "" {
			field.Label = field.Name
		}
		def.Fields = append(def.Fields, field)
	}
	return def, nil
}

func knownType(kind string) bool {
	switch kind {
	case TypeText, TypeEmail, TypePassword, TypeTextarea, TypeNumber,
		TypeInteger, TypeBoolean, TypeSelect, TypeMultiSelect:
		return true
	default:
		return false
	}
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
