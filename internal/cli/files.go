// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxCodeBytes caps the code gathered for one analysis.
const MaxCodeBytes = 512 * 1024

// ErrNoFiles is returned when no pattern matched a file.
var ErrNoFiles = errors.New("no files matched")

// GatherFiles expands doublestar patterns and concatenates the matching
// files. A single file is returned as is; several are each preceded by a
// "// File: path" line. Directories are skipped and duplicates dropped.
func GatherFiles(patterns ...string) (code string, files []string, err error) {
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return "", nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, " "))
	}

	var sb strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", nil, err
		}
		if len(files) > 1 {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "// File: %s\n", f)
		}
		sb.Write(data)
		if sb.Len() > MaxCodeBytes {
			return "", nil, fmt.Errorf("code exceeds %d bytes; narrow the patterns", MaxCodeBytes)
		}
	}
	return sb.String(), files, nil
}
