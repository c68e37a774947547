package ingest

import (
	"testing"

	"talentmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := map[string]string{
		"resume.PDF":       "pdf",
		"a/b/cv.docx":      "docx",
		"notes.txt":        "txt",
		"noext":            "",
		"s3://b/p/j/x.pdf": "pdf",
		"archive.tar.gz":   "gz",
	}
	for name, want := range tests {
		assert.Equal(t, want, Kind(name), name)
	}
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText("cv.txt", []byte("  Jane Doe\nGo developer \n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", text)

	_, err = ExtractText("cv.txt", []byte("   \n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeIO))

	_, err = ExtractText("cv.rtf", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeValidation))

	_, err = ExtractText("cv.pdf", []byte("not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeIO))

	_, err = ExtractText("cv.docx", []byte("not a zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeIO))
}

func TestDocxPlainText(t *testing.T) {
	content := `<w:document><w:body><w:p><w:r><w:t>Jane &amp; Co</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>SQL</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, "Jane & Co\nGo\nSQL\n", docxPlainText(content))
}
