// Package prompt builds what the model sees for one trigger.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"pkdindustries/chorus/internal/core"
)

// Templates are the static prompt blocks. They are loaded once and never change.
type Templates struct {
	Identity   string
	Guidelines string
}

// LoadTemplates reads the identity and guideline blocks. A missing or empty
// file is a configuration error.
func LoadTemplates(identityPath, guidelinesPath string) (*Templates, error) {
	identity, err := loadBlock("identity", identityPath)
	if err != nil {
		return nil, err
	}
	guidelines, err := loadBlock("guidelines", guidelinesPath)
	if err != nil {
		return nil, err
	}
	return &Templates{Identity: identity, Guidelines: guidelines}, nil
}

func loadBlock(name, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s prompt: %w", core.ErrConfig, name, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s prompt %s is empty", core.ErrConfig, name, path)
	}
	return text, nil
}
