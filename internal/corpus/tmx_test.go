package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

const sampleTMX = `<?xml version="1.0" encoding="UTF-8"?>
<tmx version="1.4">
  <header creationtool="tool" creationtoolversion="1" segtype="sentence" o-tmf="x"
          adminlang="en-us" srclang="en" datatype="plaintext">
    <prop type="id">12</prop>
    <prop type="name">Manuals</prop>
  </header>
  <body>
    <tu tuid="1">
      <tuv xml:lang="en"><seg>Open the file.</seg></tuv>
      <tuv xml:lang="fr"><seg>Ouvrez le fichier.</seg></tuv>
      <tuv xml:lang="de"><seg>Öffnen Sie die Datei.</seg></tuv>
    </tu>
    <tu tuid="2">
      <tuv xml:lang="en"><seg>Lonely</seg></tuv>
    </tu>
    <tu tuid="3">
      <tuv lang="en"><seg>Save &amp; close</seg></tuv>
      <tuv lang="fr"><seg>Enregistrer et fermer</seg></tuv>
    </tu>
  </body>
</tmx>`

func TestParseTMX(t *testing.T) {
	m, err := ParseTMX([]byte(sampleTMX))
	require.NoError(t, err)

	assert.Equal(t, int64(12), m.ID)
	assert.Equal(t, "Manuals", m.Name)
	assert.Equal(t, "en", m.SourceLang)
	require.Len(t, m.Entries, 2, "tu with a single tuv is skipped")

	assert.Equal(t, tm.Variant{Lang: "en", Segment: "Open the file."}, m.Entries[0].Source)
	assert.Equal(t, []tm.Variant{
		{Lang: "fr", Segment: "Ouvrez le fichier."},
		{Lang: "de", Segment: "Öffnen Sie die Datei."},
	}, m.Entries[0].Targets)
	assert.Equal(t, "Save & close", m.Entries[1].Source.Segment)
}

func TestParseTMXDefaultName(t *testing.T) {
	data := `<tmx version="1.4">
  <header creationtool="t" creationtoolversion="1" segtype="sentence" o-tmf="x" adminlang="en" srclang="en" datatype="text"/>
  <body><tu tuid="1"><tuv xml:lang="en"><seg>a</seg></tuv><tuv xml:lang="es"><seg>b</seg></tuv></tu></body>
</tmx>`
	m, err := ParseTMX([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "New TM", m.Name)
	assert.Zero(t, m.ID)
}

func TestValidateTMX(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "<tmx"},
		{"wrong root", `<tbx/>`},
		{"no header", `<tmx><body><tu tuid="1"/></body></tmx>`},
		{"missing attribute", `<tmx><header creationtool="t"/><body><tu tuid="1"/></body></tmx>`},
		{"no units", `<tmx><header creationtool="t" creationtoolversion="1" segtype="s" o-tmf="x" adminlang="en" srclang="en" datatype="d"/><body/></tmx>`},
		{"bad tuid", `<tmx><header creationtool="t" creationtoolversion="1" segtype="s" o-tmf="x" adminlang="en" srclang="en" datatype="d"/><body><tu tuid="a"/></body></tmx>`},
		{"empty seg", `<tmx><header creationtool="t" creationtoolversion="1" segtype="s" o-tmf="x" adminlang="en" srclang="en" datatype="d"/><body><tu tuid="1"><tuv xml:lang="en"><seg> </seg></tuv><tuv xml:lang="fr"><seg>x</seg></tuv></tu></body></tmx>`},
		{"no lang", `<tmx><header creationtool="t" creationtoolversion="1" segtype="s" o-tmf="x" adminlang="en" srclang="en" datatype="d"/><body><tu tuid="1"><tuv><seg>a</seg></tuv><tuv xml:lang="fr"><seg>x</seg></tuv></tu></body></tmx>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTMX([]byte(tt.data))
			assert.ErrorIs(t, err, ErrUnsupportedCorpus)
		})
	}
	assert.NoError(t, ValidateTMX([]byte(sampleTMX)))
}

func TestEncodeTMXRoundTrip(t *testing.T) {
	m := &tm.Memory{ID: 3, Name: "Docs", SourceLang: "en"}
	m.Add(tm.Variant{Lang: "en", Segment: "Print <all> pages"}, tm.Variant{Lang: "it", Segment: "Stampa tutte le pagine"})
	m.Add(tm.Variant{Lang: "en", Segment: "Cancel"}, tm.Variant{Lang: "it", Segment: "Annulla"})

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	data, err := EncodeTMX(m, now)
	require.NoError(t, err)
	assert.Contains(t, string(data), `creationdate="20240506T070809Z"`)
	assert.Contains(t, string(data), `<tu tuid="2">`)
	assert.Contains(t, string(data), `xml:lang="it"`)

	kind, err := Detect(data)
	require.NoError(t, err)
	assert.Equal(t, KindTMX, kind)

	back, err := ParseTMX(data)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}
