package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status is how git sees the files that hold the registry secret.
type Status struct {
	IsRepo    bool
	Tracked   []string // committed to git (bad: the secret is in history)
	Untracked []string
	Ignored   []string // matched by a .gitignore rule (good)
	Unignored []string // could be committed by accident
}

// IsGitRepo checks if dir is inside a git work tree
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(dir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = dir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(dir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = dir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// Check reports the git state of each file. Paths may be absolute; git
// runs in the directory of each file so storage outside the current
// work tree is handled.
func Check(files []string) *Status {
	status := &Status{}

	for _, file := range files {
		dir := filepath.Dir(file)
		if !IsGitRepo(dir) {
			continue
		}
		status.IsRepo = true

		name := filepath.Base(file)
		if IsTracked(dir, name) {
			status.Tracked = append(status.Tracked, file)
		} else {
			status.Untracked = append(status.Untracked, file)
		}

		if IsIgnored(dir, name) {
			status.Ignored = append(status.Ignored, file)
		} else {
			status.Unignored = append(status.Unignored, file)
		}
	}

	return status
}

// FormatStatus formats git status for display, empty outside a repository
func FormatStatus(status *Status) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	if len(status.Tracked) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d file(s) holding the secret are tracked by git:\n", len(status.Tracked)))
		for _, file := range status.Tracked {
			result.WriteString(fmt.Sprintf("      - %s (run: git rm --cached %s)\n", file, filepath.Base(file)))
		}
	} else if len(status.Untracked) > 0 {
		result.WriteString("   ok: index files are not tracked by git\n")
	}

	if len(status.Unignored) > 0 {
		trackedSet := make(map[string]bool, len(status.Tracked))
		for _, f := range status.Tracked {
			trackedSet[f] = true
		}
		for _, file := range status.Unignored {
			if !trackedSet[file] {
				result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore\n", file))
			}
		}
	} else if len(status.Ignored) > 0 {
		result.WriteString(fmt.Sprintf("   ok: %d file(s) in .gitignore\n", len(status.Ignored)))
	}

	return result.String()
}
