package errcode

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultMessages []byte

// Catalog maps codes to messages. It is immutable after loading and safe for
// concurrent use.
type Catalog struct {
	messages map[Code]string
}

// Default returns the catalogue built from the embedded message table.
func Default() *Catalog {
	c := &Catalog{messages: make(map[Code]string)}
	if err := c.merge(defaultMessages); err != nil {
		panic(fmt.Sprintf("errcode: embedded defaults: %v", err))
	}
	return c
}

// Load returns the embedded defaults overlaid with every *.yaml / *.yml file
// in dir. A missing dir is not an error.
func Load(dir string) (*Catalog, error) {
	c := Default()
	if dir == "" {
		return c, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read error code dir: %w", err)
	}

	// Files are applied in name order so overrides are deterministic.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := c.merge(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var raw map[int]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		c.messages[Code(k)] = v
	}
	return nil
}

// Message returns the message for code, or "Unknown error (<code>)".
func (c *Catalog) Message(code Code) string {
	if code == OK {
		return "success"
	}
	if msg, ok := c.messages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error (%d)", int(code))
}

// Len reports how many codes have a message.
func (c *Catalog) Len() int {
	return len(c.messages)
}
