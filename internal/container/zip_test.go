package container

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArchive(t *testing.T) []byte {
	t.Helper()
	data, err := Build(map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   "<w:document>old</w:document>",
		"word/media/a.png":    "\x89PNG",
	}, []string{"[Content_Types].xml", "word/document.xml", "word/media/a.png"})
	require.NoError(t, err)
	return data
}

func TestUnpackFiltersParts(t *testing.T) {
	data := sampleArchive(t)

	parts, err := Unpack(data, func(name string) bool { return name == "word/document.xml" })
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"word/document.xml": "<w:document>old</w:document>"}, parts)

	all, err := Unpack(data, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepackReplacesAndKeepsOrder(t *testing.T) {
	data := sampleArchive(t)

	out, err := Repack(data, map[string]string{"word/document.xml": "<w:document>new</w:document>"})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"[Content_Types].xml", "word/document.xml", "word/media/a.png"}, names)

	parts, err := Unpack(out, nil)
	require.NoError(t, err)
	assert.Equal(t, "<w:document>new</w:document>", parts["word/document.xml"])
	assert.Equal(t, "\x89PNG", parts["word/media/a.png"])
}

func TestRepackUnknownPart(t *testing.T) {
	_, err := Repack(sampleArchive(t), map[string]string{"word/missing.xml": "x"})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestUnpackRejectsBadInput(t *testing.T) {
	_, err := Unpack([]byte("not a zip"), nil)
	assert.Error(t, err)

	evil, err := Build(map[string]string{"../evil.xml": "x"}, []string{"../evil.xml"})
	require.NoError(t, err)
	_, err = Unpack(evil, nil)
	assert.ErrorIs(t, err, ErrInvalidEntry)
}
