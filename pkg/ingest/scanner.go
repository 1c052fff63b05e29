// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"log/slog"
)

var (
	// gitURLPattern matches the URL shapes git clone accepts from us.
	gitURLPattern = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%]+$`)

	// shellMetaPattern matches characters that must never reach exec.
	shellMetaPattern = regexp.MustCompile("[;&|$`\n\r\\\\]")
)

// Scanner resolves an ingestion source to a file listing. Git URLs are
// shallow-cloned into a temp directory that lives until Close.
type Scanner struct {
	logger *slog.Logger

	mu       sync.Mutex
	tempDirs []string
}

// NewScanner creates a repository scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Close removes temp directories left by git clones.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for _, dir := range s.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("ingest.scan.cleanup.error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	s.tempDirs = nil
	return lastErr
}

// SourceFile is one file selected for ingestion.
type SourceFile struct {
	Path     string // relative to the repository root, slash-separated
	AbsPath  string
	Size     int64
	Language string
}

// ScanResult is the file listing for one repository.
type ScanResult struct {
	RootPath    string
	Name        string // repository display name derived from the source
	Files       []SourceFile
	TotalSize   int64
	Languages   map[string]int
	SkipReasons map[string]int
}

// Scan resolves the source and walks it, applying the exclude policy and
// size cap. Walk-level errors on individual entries are skipped; failure
// to resolve or enter the root is fatal.
func (s *Scanner) Scan(ctx context.Context, src Source, excludes []string, maxFileSize int64) (*ScanResult, error) {
	var root string
	var err error

	switch {
	case src.URL != "":
		root, err = s.clone(ctx, src.URL)
		if err != nil {
			return nil, fmt.Errorf("clone repository: %w", err)
		}
	case src.Path != "":
		root, err = filepath.Abs(src.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve path: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", root)
		}
	default:
		return nil, fmt.Errorf("source has neither path nor URL")
	}

	s.logger.Info("ingest.scan.start", "root", root)

	result := &ScanResult{
		RootPath:    root,
		Name:        sourceName(src),
		Languages:   make(map[string]int),
		SkipReasons: make(map[string]int),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn("ingest.scan.walk.error", "path", path, "err", walkErr)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if excluded(rel, excludes) {
				result.SkipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, excludes) {
			result.SkipReasons["excluded"]++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			result.SkipReasons["too_large"]++
			return nil
		}

		lang := LanguageOf(rel)
		if lang == "" {
			result.SkipReasons["unsupported_language"]++
			return nil
		}

		result.Files = append(result.Files, SourceFile{
			Path:     rel,
			AbsPath:  path,
			Size:     info.Size(),
			Language: lang,
		})
		result.TotalSize += info.Size()
		result.Languages[lang]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	s.logger.Info("ingest.scan.complete",
		"files", len(result.Files),
		"total_size", result.TotalSize,
		"languages", result.Languages,
		"skipped", result.SkipReasons,
	)
	return result, nil
}

// clone shallow-clones a validated git URL into a tracked temp directory.
func (s *Scanner) clone(ctx context.Context, gitURL string) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "ariadne-ingest-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	s.logger.Info("ingest.scan.clone.start", "url", redactURL(gitURL), "dir", tmpDir)

	// #nosec G204 - gitURL is validated above
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", gitURL, tmpDir)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone: %w", err)
	}

	s.mu.Lock()
	s.tempDirs = append(s.tempDirs, tmpDir)
	s.mu.Unlock()

	s.logger.Info("ingest.scan.clone.complete", "url", redactURL(gitURL))
	return tmpDir, nil
}

// validateGitURL rejects URLs that could smuggle shell or git options.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("URL is empty")
	}
	if strings.HasPrefix(gitURL, "-") {
		return fmt.Errorf("URL starts with a dash")
	}
	if shellMetaPattern.MatchString(gitURL) {
		return fmt.Errorf("URL contains shell metacharacters")
	}

	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("malformed URL: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("URL has no host")
		}
		if parsed.User != nil {
			if _, has := parsed.User.Password(); has {
				return fmt.Errorf("URL embeds a password")
			}
		}
		return nil
	}
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") || strings.HasPrefix(gitURL, "file://") {
		if !gitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("malformed git URL")
		}
		return nil
	}
	return fmt.Errorf("unsupported protocol: must be https://, git@, ssh:// or file://")
}

// redactURL strips credentials and query params before logging.
func redactURL(gitURL string) string {
	parsed, err := url.Parse(gitURL)
	if err != nil {
		return gitURL
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}

// sourceName derives the repository display name from its source.
func sourceName(src Source) string {
	if src.URL != "" {
		name := strings.TrimSuffix(src.URL, ".git")
		name = strings.TrimRight(name, "/")
		if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
			name = name[idx+1:]
		}
		if name != "" {
			return name
		}
		return src.URL
	}
	abs, err := filepath.Abs(src.Path)
	if err != nil {
		return src.Path
	}
	return filepath.Base(abs)
}

// LanguageOf detects the programming language from a path's extension.
// Unknown extensions return "".
func LanguageOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".rs":
		return "rust"
	case ".rb":
		return "ruby"
	case ".php":
		return "php"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".hpp":
		return "cpp"
	case ".cs":
		return "csharp"
	case ".kt":
		return "kotlin"
	case ".swift":
		return "swift"
	default:
		return ""
	}
}
