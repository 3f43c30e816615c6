package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var errInvalidFactPack = errors.New("invalid fact pack")

type factPackFile struct {
	Tables []FactTable `yaml:"tables"`
}

// LoadFactPacks reads every *.yaml / *.yml file in dir, in name order, and
// returns their tables. A missing directory yields no tables.
func LoadFactPacks(dir string) ([]FactTable, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat facts dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("facts path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read facts dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var tables []FactTable
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		loaded, err := parseFactPack(path)
		if err != nil {
			return nil, err
		}
		for _, t := range loaded {
			if prev, exists := seen[t.Name]; exists {
				return nil, fmt.Errorf("duplicate fact table %q in %s (already in %s)", t.Name, path, prev)
			}
			seen[t.Name] = path
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func parseFactPack(path string) ([]FactTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fact pack %s: %w", path, err)
	}

	var file factPackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errInvalidFactPack, path, err)
	}

	out := make([]FactTable, 0, len(file.Tables))
	for i, t := range file.Tables {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("%w: %s: table %d has no name", errInvalidFactPack, path, i)
		}
		if len(t.Facts) == 0 {
			return nil, fmt.Errorf("%w: %s: table %q has no facts", errInvalidFactPack, path, t.Name)
		}
		for j, f := range t.Facts {
			if len(f.Keywords) == 0 || strings.TrimSpace(f.Answer) == "" {
				return nil, fmt.Errorf("%w: %s: table %q fact %d needs keywords and an answer", errInvalidFactPack, path, t.Name, j)
			}
		}
		out = append(out, t)
	}
	return out, nil
}
