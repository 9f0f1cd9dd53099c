package project

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"
)

// GitInfo holds the git state of the repository an exercise lives in.
type GitInfo struct {
	Branch  string
	Commit  string
	IsDirty bool
}

// CollectGitInfo reads branch, commit and dirty state for dir from a single
// `git status --porcelain=v2 --branch` call. Only changes under dir count as
// dirty.
func CollectGitInfo(dir string) (*GitInfo, error) {
	cmd := exec.Command("git", "status", "--porcelain=v2", "--branch", "--", ".")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("reading git status: %w", err)
	}
	return parseStatus(string(out))
}

func parseStatus(out string) (*GitInfo, error) {
	info := &GitInfo{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "# branch.oid "):
			info.Commit = strings.TrimPrefix(line, "# branch.oid ")
		case strings.HasPrefix(line, "# branch.head "):
			info.Branch = strings.TrimPrefix(line, "# branch.head ")
		case strings.HasPrefix(line, "#"), line == "":
		default:
			info.IsDirty = true
		}
	}
	if info.Commit == "" || info.Commit == "(initial)" {
		return nil, fmt.Errorf("repository has no commits")
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info, nil
}
