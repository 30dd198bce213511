package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlMetadata_OmitEmpty(t *testing.T) {
	meta := CrawlMetadata{
		RunID: "test-run",
		Specs: []SpecRecord{{Shortname: "fetch", URL: "https://fetch.spec.whatwg.org/", Status: "success"}},
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "error_type")
	assert.NotContains(t, raw, "report_file")
	assert.Contains(t, raw, `"run_id":"test-run"`)
}
