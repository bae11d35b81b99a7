// Package editor creates notes and hands them to the user's editor.
package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultEditor = "nvim"

// CreateNote creates an empty note at abs, including missing directories. It
// fails when the file already exists.
func CreateNote(abs string) error {
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("note %s already exists", abs)
		}
		return err
	}
	return file.Close()
}

// Command returns the command line that opens the note at abs. An empty
// editor falls back to $EDITOR and then to nvim. The editor "obsidian" opens
// the note through the obsidian:// URI scheme.
func Command(editor, vault, abs string) ([]string, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = defaultEditor
	}

	if editor != "obsidian" {
		fields := strings.Fields(editor)
		return append(fields, abs), nil
	}

	rel, err := filepath.Rel(vault, abs)
	if err != nil {
		return nil, err
	}
	uri := fmt.Sprintf(
		"obsidian://open?vault=%s&file=%s",
		url.QueryEscape(filepath.Base(vault)),
		url.QueryEscape(filepath.ToSlash(rel)),
	)

	switch runtime.GOOS {
	case "darwin":
		return []string{"open", uri}, nil
	case "linux":
		return []string{"xdg-open", uri}, nil
	case "windows":
		return []string{"cmd", "/c", "start", uri}, nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// Open runs the command built by Command. Terminal editors are attached to
// the current terminal and waited for; URI launchers are not.
func Open(editor, vault, abs string) error {
	args, err := Command(editor, vault, abs)
	if err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	if isLauncher(args[0]) {
		return cmd.Start()
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", args[0], err)
	}
	return nil
}

func isLauncher(name string) bool {
	return name == "open" || name == "xdg-open" || name == "cmd"
}
