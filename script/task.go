package script

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/kravl/errors"
)

// Task is a script together with the arguments it runs with.
type Task struct {
	Name   string
	Path   string
	Source string
	Args   map[string]any
}

// LoadTask reads a task file. The name comes from a leading
// "-- @name:" comment, else from the file name.
func LoadTask(path string, args map[string]any) (Task, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Task{}, errors.IO("read task", path, err)
	}
	t := Task{Path: path, Source: string(content), Args: args}

	for line := range strings.SplitSeq(t.Source, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "--") {
			break
		}
		if name, ok := strings.CutPrefix(line, "-- @name:"); ok {
			t.Name = strings.TrimSpace(name)
		}
	}
	if t.Name == "" {
		base := filepath.Base(path)
		t.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return t, nil
}
