package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-scripts/reviews/pkg/common"
)

// Batch is the file written for one extracted page
type Batch struct {
	URL          string          `json:"url"`
	ExtractedAt  time.Time       `json:"extracted_at"`
	ReviewsCount int             `json:"reviews_count"`
	Reviews      []common.Review `json:"reviews"`
}

// SummaryEntry describes the outcome for one page of a run
type SummaryEntry struct {
	URL          string `json:"url"`
	ReviewsCount int    `json:"reviews_count"`
	File         string `json:"file,omitempty"`
	Error        string `json:"error,omitempty"`
}

// FileWriter handles writing extracted reviews to files
type FileWriter struct {
	outputDir string
	now       func() time.Time
}

// New creates a new FileWriter instance
func New(outputDir string) (*FileWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileWriter{outputDir: outputDir, now: time.Now}, nil
}

// WriteBatch writes the reviews of one page and returns the file path
func (w *FileWriter) WriteBatch(pageURL string, reviews []common.Review) (string, error) {
	if reviews == nil {
		reviews = []common.Review{}
	}
	path := filepath.Join(w.outputDir, batchFilename(pageURL))

	batch := Batch{
		URL:          pageURL,
		ExtractedAt:  w.now().UTC(),
		ReviewsCount: len(reviews),
		Reviews:      reviews,
	}
	if err := writeJSON(path, batch); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSummary writes summary.json for a whole run
func (w *FileWriter) WriteSummary(entries []SummaryEntry) (string, error) {
	if entries == nil {
		entries = []SummaryEntry{}
	}
	path := filepath.Join(w.outputDir, "summary.json")
	if err := writeJSON(path, entries); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// maxNameBytes bounds the readable part of a batch filename
const maxNameBytes = 100

// batchFilename names the file for one page: the sanitized URL cut to
// maxNameBytes, then the first 8 hex digits of the URL's sha256. URLs that
// sanitize alike still get distinct files.
func batchFilename(pageURL string) string {
	name := sanitizeFilename(pageURL)
	for len(name) > maxNameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	sum := sha256.Sum256([]byte(pageURL))
	return name + "_" + hex.EncodeToString(sum[:4]) + ".json"
}

// sanitizeFilename creates a safe filename from a URL
func sanitizeFilename(url string) string {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "www.")
	url = strings.TrimRight(url, "/")

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " ", "&", "=", "#", "%"}
	for _, char := range unsafe {
		url = strings.ReplaceAll(url, char, "_")
	}

	if url == "" {
		return "page"
	}
	return url
}
