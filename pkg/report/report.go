package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"spec-scraper/pkg/extract"
	"spec-scraper/pkg/models"
	"spec-scraper/pkg/outline"
	"spec-scraper/pkg/utils"
)

// SpecReport is the full extraction result for one spec, written as a single
// JSON document per crawl.
type SpecReport struct {
	Shortname   string               `json:"shortname"`
	URL         string               `json:"url"`
	FinalURL    string               `json:"final_url,omitempty"`
	Title       string               `json:"title"`
	Dialect     string               `json:"dialect,omitempty"`
	RetrievedAt time.Time            `json:"retrieved_at"`
	ContentHash string               `json:"content_hash,omitempty"`
	Headings    []outline.Heading    `json:"headings,omitempty"`
	IDs         outline.HeadingMap   `json:"ids"`
	Definitions []extract.Definition `json:"definitions,omitempty"`
	IDL         []extract.IDLBlock   `json:"idl,omitempty"`
	References  extract.References   `json:"references"`
}

// Writer persists crawl results under one output directory.
type Writer struct {
	log       *logrus.Entry
	outputDir string
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(log *logrus.Entry, outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create output directory %s: %v", utils.ErrFilesystem, outputDir, err)
	}
	return &Writer{log: log, outputDir: outputDir}, nil
}

// WriteSpecReport writes one spec's report as indented JSON and returns the
// filename relative to the output directory. Map keys are sorted by the
// encoder, so re-running an unchanged spec produces byte-identical output.
func (w *Writer) WriteSpecReport(rep *SpecReport) (string, error) {
	filename := utils.SanitizeFilename(rep.Shortname) + ".json"
	path := filepath.Join(w.outputDir, filename)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshaling report for '%s': %v", utils.ErrFilesystem, rep.Shortname, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing report %s: %v", utils.ErrFilesystem, path, err)
	}

	w.log.WithFields(logrus.Fields{
		"spec": rep.Shortname,
		"file": filename,
		"ids":  len(rep.IDs),
	}).Info("Wrote spec report")
	return filename, nil
}

// WriteCrawlIndex writes the run-level metadata index and returns its
// filename relative to the output directory.
func (w *Writer) WriteCrawlIndex(meta *models.CrawlMetadata) (string, error) {
	const filename = "crawl_index.json"
	path := filepath.Join(w.outputDir, filename)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshaling crawl index: %v", utils.ErrFilesystem, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing crawl index %s: %v", utils.ErrFilesystem, path, err)
	}

	w.log.WithFields(logrus.Fields{
		"run_id": meta.RunID,
		"specs":  meta.TotalSpecs,
	}).Info("Wrote crawl index")
	return filename, nil
}
