package card

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cardterm/internal/theme"
)

// ErrUnsupportedFile indicates a card file extension other than yaml or json.
var ErrUnsupportedFile = errors.New("unsupported card file format")

// LoadFile reads a card from a .yaml, .yml or .json file. Missing fields stay
// empty and a missing theme falls back to the default.
func LoadFile(path string) (Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, fmt.Errorf("read card file: %w", err)
	}

	var c Card
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Card{}, fmt.Errorf("parse yaml card: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return Card{}, fmt.Errorf("parse json card: %w", err)
		}
	default:
		return Card{}, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}

	if c.Theme == "" {
		c.Theme = theme.DefaultID
	}
	return c, nil
}
