package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/onenote-mcp/hierarchy"
)

const samplePage = `<?xml version="1.0"?>
<one:Page xmlns:one="http://schemas.microsoft.com/office/onenote/2013/onenote" ID="page-1" name="Project Notes">
  <one:QuickStyleDef index="1" name="h1" spaceBefore="0.0"/>
  <one:QuickStyleDef index="2" name="p"/>
  <one:Outline>
    <one:OEChildren>
      <one:OE objectID="obj-a" quickStyleIndex="1" spaceBefore="1.5"><one:T><![CDATA[A]]></one:T></one:OE>
      <one:OE quickStyleIndex="2"><one:T><![CDATA[body text]]></one:T></one:OE>
      <one:OE objectID="obj-b" quickStyleIndex="1"><one:T><![CDATA[B]]></one:T></one:OE>
      <one:OE objectID="obj-c" quickStyleIndex="1" spaceBefore="0.9"><one:T><![CDATA[C]]></one:T></one:OE>
    </one:OEChildren>
  </one:Outline>
</one:Page>`

const plainPage = `<?xml version="1.0"?>
<one:Page xmlns:one="http://schemas.microsoft.com/office/onenote/2013/onenote" ID="page-2" name="Plain">
  <one:QuickStyleDef index="1" name="p"/>
  <one:Outline>
    <one:OEChildren>
      <one:OE quickStyleIndex="1"><one:T><![CDATA[just text]]></one:T></one:OE>
    </one:OEChildren>
  </one:Outline>
</one:Page>`

func TestParseRejectsNonPageDocuments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"hierarchy document", `<one:Notebooks xmlns:one="` + hierarchy.Namespace + `"><one:Page ID="p" name="x"/></one:Notebooks>`},
		{"lightweight page node", `<one:Page xmlns:one="` + hierarchy.Namespace + `" ID="p" name="x"/>`},
		{"page without id", `<one:Page xmlns:one="` + hierarchy.Namespace + `" name="x"><one:Outline/></one:Page>`},
		{"invalid xml", `<one:Page`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.ErrorIs(t, err, hierarchy.ErrMalformed)
		})
	}
}

func TestHeadings(t *testing.T) {
	content, err := Parse(samplePage)
	require.NoError(t, err)

	headings := Headings(content)
	require.Len(t, headings, 3)
	assert.Equal(t, "A", headings[0].Title)
	assert.Equal(t, "obj-a", headings[0].ObjectID)
	assert.Equal(t, "B", headings[1].Title)
	assert.Equal(t, "C", headings[2].Title)
}

func TestHeadingsWithoutHeadingStyle(t *testing.T) {
	content, err := Parse(plainPage)
	require.NoError(t, err)
	assert.Empty(t, Headings(content))
}

func TestNormalizeSpacing(t *testing.T) {
	content, err := Parse(samplePage)
	require.NoError(t, err)

	res := NormalizeSpacing(content)
	assert.Equal(t, 1, res.StyleDefs)
	assert.Equal(t, 3, res.Headings)
	assert.Equal(t, 2, res.Overrides)

	raw, err := content.XML()
	require.NoError(t, err)
	assert.Contains(t, raw, `name="h1" spaceBefore="0.23"`)
	// Element-level overrides are gone, the non-heading element is untouched.
	assert.NotContains(t, raw, `spaceBefore="1.5"`)
	assert.NotContains(t, raw, `spaceBefore="0.9"`)
	assert.Contains(t, raw, `<one:OE quickStyleIndex="2">`)
}

func TestNormalizeSpacingWithoutHeadingStyleIsNoop(t *testing.T) {
	content, err := Parse(plainPage)
	require.NoError(t, err)
	before, err := content.XML()
	require.NoError(t, err)

	res := NormalizeSpacing(content)
	assert.Zero(t, res.StyleDefs)
	assert.Zero(t, res.Headings)

	after, err := content.XML()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertAndRemoveTOCItems(t *testing.T) {
	content, err := Parse(samplePage)
	require.NoError(t, err)

	items := []TOCItem{
		{Title: "A", Link: "onenote:a"},
		{Title: "B", Link: "onenote:b"},
	}
	InsertTOCItems(content, items)

	raw, err := content.XML()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(raw, `content="toc-item"`))
	// Entries sit at the top of the outline, in order.
	assert.Less(t, strings.Index(raw, `onenote:a`), strings.Index(raw, `onenote:b`))
	assert.Less(t, strings.Index(raw, `onenote:b`), strings.Index(raw, `objectID="obj-a"`))
	assert.Contains(t, raw, `<a href="onenote:a">A</a>`)

	removed := RemoveTOCItems(content)
	assert.Equal(t, 2, removed)
	raw, err = content.XML()
	require.NoError(t, err)
	assert.NotContains(t, raw, "toc-item")
	// The page's own content survives removal.
	assert.Contains(t, raw, `objectID="obj-a"`)
}

func TestRemoveTOCItemsLeavesUntaggedMetaAlone(t *testing.T) {
	content, err := Parse(`<one:Page xmlns:one="` + hierarchy.Namespace + `" ID="page-3" name="Tagged">
		<one:Outline><one:OEChildren>
			<one:OE><one:Meta name="kind" content="user-note"/><one:T><![CDATA[keep me]]></one:T></one:OE>
			<one:OE><one:Meta name="kind" content="toc-item"/><one:T><![CDATA[stale entry]]></one:T></one:OE>
		</one:OEChildren></one:Outline>
	</one:Page>`)
	require.NoError(t, err)

	assert.Equal(t, 1, RemoveTOCItems(content))
	raw, err := content.XML()
	require.NoError(t, err)
	assert.Contains(t, raw, "keep me")
	assert.NotContains(t, raw, "stale entry")
}
