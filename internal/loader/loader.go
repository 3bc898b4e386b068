// Package loader aggregates heterogeneous documents into the single
// marker-delimited text the chunker consumes, and parses that text back
// into labelled sections.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ragbot/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned when an explicitly requested file
	// has an extension no loader recognizes.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrContentNotFound is returned when the content path does not exist
	// or a directory contains no usable documents.
	ErrContentNotFound = errors.New("content not found")
)

// Section boundary markers. pageMarker is the legacy single-file
// convention; documentMarker is written by Aggregate. Both are split on by
// ParseSections.
const (
	pageMarker     = "=== PAGINA:"
	documentMarker = "=== DOCUMENT:"
)

var supportedExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// LoadFile loads a single document. Unsupported extensions are a hard error.
func LoadFile(path string) (domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Name: filepath.Base(path), Content: string(data)}, nil
}

// LoadDirectory loads all supported documents under dir, in lexical walk
// order. Unsupported files are skipped; unreadable ones are skipped with a
// warning, so one bad file does not abort the rest of the ingestion.
func LoadDirectory(dir string) ([]domain.Document, error) {
	var docs []domain.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		doc, err := LoadFile(path)
		if err != nil {
			log.Printf("loader: skipping %s: %v", path, err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Aggregate combines documents into a single text, marking each document
// boundary so ParseSections can recover the per-document sections.
func Aggregate(docs []domain.Document) string {
	var sections []string
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("%s %s ===\n\n%s", documentMarker, doc.Name, content))
	}
	return strings.Join(sections, "\n\n")
}

// LoadContent loads aggregated content from a single file (read verbatim,
// assumed already marker-delimited) or from a directory of documents.
func LoadContent(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrContentNotFound, path)
		}
		return "", err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	docs, err := LoadDirectory(path)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: no supported documents in %s (add .txt or .md files)", ErrContentNotFound, path)
	}
	return Aggregate(docs), nil
}

// ParseSections splits aggregated content on the section boundary markers
// into labelled sections. The label is the remainder of the marker line with
// the trailing "===" stripped; the body is everything up to the next marker.
// Sections with empty bodies are dropped.
func ParseSections(content string) []domain.Section {
	var sections []domain.Section
	pos, skip := nextMarker(content)
	for pos >= 0 {
		rest := content[pos+skip:]
		next, nextSkip := nextMarker(rest)
		segment := rest
		if next >= 0 {
			segment = rest[:next]
		}
		if sec, ok := parseSection(segment); ok {
			sections = append(sections, sec)
		}
		if next < 0 {
			break
		}
		content = rest
		pos, skip = next, nextSkip
	}
	return sections
}

// nextMarker finds the earliest boundary marker in s and reports its offset
// and length, or (-1, 0) when none remains.
func nextMarker(s string) (pos, length int) {
	p1 := strings.Index(s, pageMarker)
	p2 := strings.Index(s, documentMarker)
	switch {
	case p1 < 0 && p2 < 0:
		return -1, 0
	case p2 < 0 || (p1 >= 0 && p1 < p2):
		return p1, len(pageMarker)
	default:
		return p2, len(documentMarker)
	}
}

func parseSection(segment string) (domain.Section, bool) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return domain.Section{}, false
	}
	label, body, found := strings.Cut(segment, "\n")
	if !found {
		return domain.Section{}, false
	}
	label = strings.TrimSpace(strings.ReplaceAll(label, "===", ""))
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Section{}, false
	}
	return domain.Section{Label: label, Body: body}, true
}
