package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
)

func sampleProject() *project.Project {
	return &project.Project{
		ID: 5,
		TranslationData: project.TranslationData{
			Name:       "guide.html",
			SourceLang: "en",
			TargetLang: "fr",
			Seg1:       []string{"Hello <world>.", " Bye."},
			Seg2:       []string{"Bonjour <monde>.", ""},
			Checked:    []bool{true, false},
			Type:       string(document.FormatHTML),
			TypeRef: project.TypeRef{
				Parts:  map[string]string{document.ContentPart: "<p>Hello &lt;world&gt;. Bye.</p>"},
				Tokens: []string{"."},
				Mode:   "strict",
			},
		},
	}
}

func TestXLIFF20RoundTrip(t *testing.T) {
	p := sampleProject()
	data, err := EncodeXLIFF20(p)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `version="2.0"`)
	assert.Contains(t, out, `srcLang="en"`)
	assert.Contains(t, out, `<mda:metaGroup category="workbench_metadata">`)
	assert.Contains(t, out, `<segment state="final">`)
	assert.Contains(t, out, `<segment state="initial">`)

	kind, err := Detect(data)
	require.NoError(t, err)
	assert.Equal(t, KindXLIFF, kind)

	back, err := ParseXLIFF(data)
	require.NoError(t, err)
	assert.Zero(t, back.ID)
	assert.Equal(t, p.TranslationData, back.TranslationData)
}

func TestXLIFF12RoundTrip(t *testing.T) {
	p := sampleProject()
	data, err := EncodeXLIFF12(p)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `version="1.2"`)
	assert.Contains(t, out, `source-language="en"`)
	assert.Contains(t, out, `approved="yes"`)
	assert.Contains(t, out, `<wb:id>5</wb:id>`)

	back, err := ParseXLIFF(data)
	require.NoError(t, err)
	assert.Equal(t, p.TranslationData, back.TranslationData)
}

func TestParseXLIFFWithoutMetadata(t *testing.T) {
	data := `<?xml version="1.0"?>
<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">
  <file original="readme.txt" source-language="en" target-language="de" datatype="plaintext">
    <body>
      <trans-unit id="1"><source>First line.</source><target state="final">Erste Zeile.</target></trans-unit>
      <trans-unit id="2" approved="yes"><source>Second.</source><target>Zweite.</target></trans-unit>
      <trans-unit id="3"><source>Third.</source></trans-unit>
    </body>
  </file>
</xliff>`
	p, err := ParseXLIFF([]byte(data))
	require.NoError(t, err)

	d := p.TranslationData
	assert.Equal(t, "readme.txt", d.Name)
	assert.Equal(t, "de", d.TargetLang)
	assert.Equal(t, []string{"First line.", "Second.", "Third."}, d.Seg1)
	assert.Equal(t, []string{"Erste Zeile.", "Zweite.", ""}, d.Seg2)
	assert.Equal(t, []bool{true, true, false}, d.Checked)

	assert.Equal(t, string(document.FormatText), d.Type)
	assert.Equal(t, "First line.\nSecond.\nThird.", d.TypeRef.Parts[document.ContentPart])
	assert.Equal(t, segment.ModeWhole.String(), d.TypeRef.Mode)
}

func TestParseXLIFFWithoutMetadataExportsUnitsWhole(t *testing.T) {
	data := `<xliff version="2.0" srcLang="en" trgLang="de">
  <file id="f1">
    <unit id="u1"><segment><source>Hello. World.</source><target>Hallo. Welt.</target></segment></unit>
    <unit id="u2"><segment><source>  </source></segment></unit>
    <unit id="u3"><segment state="final"><source>Two
lines.</source><target>Zwei Zeilen.</target></segment></unit>
    <unit id="u4"><segment><source>Left as is.</source></segment></unit>
  </file>
</xliff>`
	p, err := ParseXLIFF([]byte(data))
	require.NoError(t, err)

	d := p.TranslationData
	assert.Equal(t, []string{"Hello. World.", "Two\nlines.", "Left as is."}, d.Seg1)
	assert.Equal(t, []string{"Hallo. Welt.", "Zwei Zeilen.", ""}, d.Seg2)
	assert.Equal(t, []bool{false, true, false}, d.Checked)

	parts, err := project.New(project.Options{}).Export(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Hallo. Welt.\nZwei Zeilen.\nLeft as is.", parts[document.ContentPart])
}

func TestParseXLIFF20NameFallback(t *testing.T) {
	data := `<xliff version="2.0" srcLang="en" trgLang="ja">
  <file id="f7"><unit id="u1"><segment><source>Hi</source><target>やあ</target></segment></unit></file>
</xliff>`
	p, err := ParseXLIFF([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Translation f7", p.TranslationData.Name)
	assert.Equal(t, []string{"やあ"}, p.TranslationData.Seg2)
	assert.Equal(t, []bool{false}, p.TranslationData.Checked)
}

func TestParseXLIFFErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong root", `<tmx/>`},
		{"no version", `<xliff><file/></xliff>`},
		{"no file", `<xliff version="2.0" srcLang="en" trgLang="fr"/>`},
		{"no languages", `<xliff version="2.0"><file id="1"><unit><segment><source>a</source></segment></unit></file></xliff>`},
		{"no units", `<xliff version="2.0" srcLang="en" trgLang="fr"><file id="1"/></xliff>`},
		{"bad checked", `<xliff version="2.0" srcLang="en" trgLang="fr" xmlns:mda="urn:oasis:names:tc:xliff:metadata:2.0"><file id="1">
<mda:metadata><mda:metaGroup><mda:meta type="checked">[tru</mda:meta></mda:metaGroup></mda:metadata>
<unit><segment><source>a</source></segment></unit></file></xliff>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXLIFF([]byte(tt.data))
			assert.ErrorIs(t, err, ErrUnsupportedCorpus)
		})
	}
}

func TestEncodeXLIFFRejectsInvalidProject(t *testing.T) {
	p := sampleProject()
	p.TranslationData.Checked = nil
	_, err := EncodeXLIFF20(p)
	assert.ErrorIs(t, err, project.ErrInvalidProject)
	_, err = EncodeXLIFF12(p)
	assert.ErrorIs(t, err, project.ErrInvalidProject)
}

func TestDetectUnknown(t *testing.T) {
	_, err := Detect([]byte(`<html/>`))
	assert.ErrorIs(t, err, ErrUnsupportedCorpus)
	_, err = Detect([]byte(`not xml at all <`))
	assert.ErrorIs(t, err, ErrUnsupportedCorpus)
}
