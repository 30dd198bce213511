package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spec-scraper/pkg/models"
	"spec-scraper/pkg/outline"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	w, err := NewWriter(log.WithField("component", "report"), dir)
	require.NoError(t, err)
	return w, dir
}

func sampleReport() *SpecReport {
	return &SpecReport{
		Shortname:   "fetch",
		URL:         "https://fetch.spec.whatwg.org/",
		Title:       "Fetch Standard",
		Dialect:     "bikeshed",
		RetrievedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Headings: []outline.Heading{
			{ID: "infra", Href: "https://fetch.spec.whatwg.org/#infra", Title: "Infrastructure", Number: "1"},
		},
		IDs: outline.HeadingMap{
			"https://fetch.spec.whatwg.org/#concept-request": {
				ID: "infra", Href: "https://fetch.spec.whatwg.org/#infra", Title: "Infrastructure", Number: "1",
			},
		},
	}
}

func TestWriteSpecReport(t *testing.T) {
	w, dir := newTestWriter(t)

	filename, err := w.WriteSpecReport(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "fetch.json", filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var got SpecReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Fetch Standard", got.Title)
	require.Len(t, got.Headings, 1)
	assert.Equal(t, "1", got.Headings[0].Number)
	assert.Contains(t, got.IDs, "https://fetch.spec.whatwg.org/#concept-request")
}

func TestWriteSpecReport_Deterministic(t *testing.T) {
	w, dir := newTestWriter(t)

	rep := sampleReport()
	filename, err := w.WriteSpecReport(rep)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	_, err = w.WriteSpecReport(rep)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-writing an unchanged report must be byte-identical")
}

func TestWriteSpecReport_SanitizesShortname(t *testing.T) {
	w, dir := newTestWriter(t)

	rep := sampleReport()
	rep.Shortname = "css/grid: level 2"
	filename, err := w.WriteSpecReport(rep)
	require.NoError(t, err)
	assert.NotContains(t, filename, "/")
	assert.NotContains(t, filename, ":")

	_, err = os.Stat(filepath.Join(dir, filename))
	assert.NoError(t, err)
}

func TestWriteCrawlIndex(t *testing.T) {
	w, dir := newTestWriter(t)

	meta := &models.CrawlMetadata{
		RunID:          "run-123",
		CrawlStartTime: time.Now().UTC(),
		CrawlEndTime:   time.Now().UTC(),
		TotalSpecs:     1,
		SpecsSucceeded: 1,
		Specs: []models.SpecRecord{
			{Shortname: "fetch", URL: "https://fetch.spec.whatwg.org/", Status: "success", ReportFile: "fetch.json"},
		},
	}

	filename, err := w.WriteCrawlIndex(meta)
	require.NoError(t, err)
	assert.Equal(t, "crawl_index.json", filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var got models.CrawlMetadata
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-123", got.RunID)
	require.Len(t, got.Specs, 1)
	assert.Equal(t, "fetch.json", got.Specs[0].ReportFile)
}
