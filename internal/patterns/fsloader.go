package patterns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PhucNguyen204/REX_V2/pkg/engine"
)

// PatternFile is one YAML pattern-set document:
//
//	name: web-attacks
//	patterns:
//	  - id: sqli-union
//	    expr: union.*select
//	    case_insensitive: true
//	    description: classic UNION-based injection probe
type PatternFile struct {
	Name     string               `yaml:"name"`
	Patterns []engine.PatternSpec `yaml:"patterns"`
}

func isYAML(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".yml") || strings.HasSuffix(l, ".yaml")
}

func LoadFileYAML(b []byte) (PatternFile, error) {
	var pf PatternFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return PatternFile{}, err
	}
	if len(pf.Patterns) == 0 {
		return PatternFile{}, errors.New("missing patterns block")
	}
	for i, p := range pf.Patterns {
		if strings.TrimSpace(p.Expr) == "" {
			return PatternFile{}, fmt.Errorf("pattern %d: empty expr", i)
		}
	}
	return pf, nil
}

func LoadDirRecursive(root string) ([]PatternFile, error) {
	var out []PatternFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		pf, err := LoadFileYAML(b)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, pf)
		return nil
	})
	return out, err
}

// Flatten merges pattern files into one list, qualifying empty IDs
// with the file name and position.
func Flatten(files []PatternFile) []engine.PatternSpec {
	var out []engine.PatternSpec
	for _, pf := range files {
		for i, p := range pf.Patterns {
			if p.ID == "" {
				p.ID = fmt.Sprintf("%s-%d", pf.Name, i)
			}
			out = append(out, p)
		}
	}
	return out
}
