package document

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func htmlSource(content string) Source {
	return Source{Format: FormatHTML, Parts: map[string]string{ContentPart: content}}
}

func TestHTMLSegmentAndReinsert(t *testing.T) {
	src := htmlSource(`<p>Hello <b>world</b>.</p><input placeholder="Search"><script>var a = "x. Y";</script>`)

	seg := NewSegmenter(nil, zap.NewNop())
	s, err := seg.Open(src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello world.", "Search"}, s.Seg1)

	require.NoError(t, seg.Reinsert(context.Background(), s, []string{"Bonjour monde.", "Recherche"}))

	parts, err := s.Tree().Parts()
	require.NoError(t, err)
	out := parts[ContentPart]
	assert.Contains(t, out, `<p>Bonjour<b> monde</b>.</p>`)
	assert.Contains(t, out, `placeholder="Recherche"`)
	assert.Contains(t, out, `var a = "x. Y";`)
	assert.NotContains(t, out, "<html>")
}

func TestHTMLUnitOrdering(t *testing.T) {
	src := htmlSource(`<!DOCTYPE html><html><head><title>Page title</title><style>p { color: red; }</style></head>` +
		`<body><div>One. <span title="Tip">Two.</span></div>` +
		`<ul><li>Item <img alt="Logo" src="a.png"> text</li><li>  </li></ul>` +
		`<noscript>Enable JS.</noscript><template><p>Hidden.</p></template></body></html>`)

	tree, err := OpenHTML(src, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Page title", "One. Two.", "Tip", "Item  text", "Logo"}, unitTexts(tree))

	units := tree.Units()
	assert.Equal(t, UnitBlock, units[1].Kind)
	assert.Equal(t, UnitAttribute, units[2].Kind)
	assert.Equal(t, "span@title", units[2].Label)

	parts, err := tree.Parts()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(parts[ContentPart], "<!DOCTYPE html>"))
	assert.Contains(t, parts[ContentPart], "<title>Page title</title>")
}

func TestHTMLCustomOptions(t *testing.T) {
	src := htmlSource(`<div aria-label="Menu">Keep. <code>skip()</code></div>`)

	tree, err := OpenHTML(src, Options{
		IgnoredTags: []string{"CODE"},
		Attributes:  []string{"aria-label"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep. ", "Menu"}, unitTexts(tree))
}

func TestHTMLAttributeWrite(t *testing.T) {
	tree, err := OpenHTML(htmlSource(`<img alt="A &amp; B">`), Options{})
	require.NoError(t, err)
	units := tree.Units()
	require.Len(t, units, 1)
	node := units[0].Ranges[0].Node
	assert.Equal(t, "A & B", tree.NodeText(node))

	tree.SetNodeText(node, `C "D"`)
	parts, err := tree.Parts()
	require.NoError(t, err)
	assert.Contains(t, parts[ContentPart], `alt="C &#34;D&#34;"`)
}
