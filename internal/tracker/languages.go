package tracker

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var defaultLanguagesYAML []byte

// languageFile is the on-disk shape of a language map.
type languageFile struct {
	Extensions map[string][]string `yaml:"extensions"`
	Filenames  map[string]string   `yaml:"filenames"`
}

// Languages maps file paths to language names.
type Languages struct {
	byExt  map[string]string
	byName map[string]string
}

// DefaultLanguages returns the built-in language map.
func DefaultLanguages() *Languages {
	l := &Languages{byExt: map[string]string{}, byName: map[string]string{}}
	if err := l.merge(defaultLanguagesYAML); err != nil {
		panic(fmt.Sprintf("invalid embedded languages.yaml: %v", err))
	}
	return l
}

// LoadLanguages returns the built-in map overlaid with the YAML file at path.
// An empty path returns the built-in map.
func LoadLanguages(path string) (*Languages, error) {
	l := DefaultLanguages()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read languages file: %w", err)
	}
	if err := l.merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse languages file %s: %w", path, err)
	}
	return l, nil
}

func (l *Languages) merge(data []byte) error {
	var f languageFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for lang, exts := range f.Extensions {
		for _, ext := range exts {
			ext = strings.ToLower(ext)
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.byExt[ext] = lang
		}
	}
	for name, lang := range f.Filenames {
		l.byName[name] = lang
	}
	return nil
}

// Detect returns the language for file, or "" when it is not recognised.
func (l *Languages) Detect(file string) string {
	base := filepath.Base(file)
	if lang, ok := l.byName[base]; ok {
		return lang
	}
	return l.byExt[strings.ToLower(filepath.Ext(base))]
}

var builtinLanguages = DefaultLanguages()

// DetectLanguage detects the language of file using the built-in map.
func DetectLanguage(file string) string {
	return builtinLanguages.Detect(file)
}
