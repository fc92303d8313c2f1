// Package editor composes comment text in the user's external editor.
package editor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// commentPrefix marks instruction lines that are dropped from the result.
const commentPrefix = "#"

// EnvEditor prepares an external editor command from $VISUAL or $EDITOR
// (fallback: "vi"). Callers run it with tea.ExecProcess so Bubble Tea
// releases the terminal first.
type EnvEditor struct {
	dir string
}

// NewEnvEditor creates an EnvEditor that writes drafts to the system
// temp directory.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

func command() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

func header(author string) string {
	var b strings.Builder
	if author != "" {
		fmt.Fprintf(&b, "# Commenting on %s's post.\n", author)
	}
	b.WriteString("# Lines starting with '#' are ignored.\n")
	b.WriteString("# Save and quit to send. An empty comment cancels.\n\n")
	return b.String()
}

// Cmd writes the draft to a temp file and returns the editor command for it
// along with the file path.
func (e *EnvEditor) Cmd(draft, author string) (*exec.Cmd, string, error) {
	tmpFile, err := os.CreateTemp(e.dir, "feedsync-comment-*.md")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	if _, err := tmpFile.WriteString(header(author) + draft); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	argv := command()
	cmd := exec.Command(argv[0], append(argv[1:], tmpPath)...)
	return cmd, tmpPath, nil
}

// ReadContent returns the edited text without instruction lines and
// removes the file.
func (e *EnvEditor) ReadContent(path string) (string, error) {
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), commentPrefix) {
			continue
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading temp file: %w", err)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
