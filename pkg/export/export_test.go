package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Date", "Staff", "Status"},
		Rows: []map[string]string{
			{"Date": "2024-01-10", "Staff": "Sato", "Status": "submitted"},
			{"Date": "2024-01-11", "Staff": "Suzuki, Jr.", "Status": "draft"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Date,Staff,Status\n2024-01-10,Sato,submitted\n2024-01-11,\"Suzuki, Jr.\",draft\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Daily reports")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}

func TestCSVExporterWithBOM(t *testing.T) {
	out, err := NewCSVExporter().WithBOM().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}
