package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHierarchy = `<?xml version="1.0"?>
<one:Notebooks xmlns:one="http://schemas.microsoft.com/office/onenote/2013/onenote">
  <one:Notebook ID="nb-1" name="Work" isCurrentlyViewed="true">
    <one:Section ID="sec-1" name="Projects">
      <one:Page ID="pg-1" name="Roadmap"/>
      <one:Page ID="pg-2" name="Retro" isCurrentlyViewed="true"/>
    </one:Section>
    <one:Section ID="sec-2" name="Archive"/>
  </one:Notebook>
  <one:Notebook ID="nb-2" name="Personal"/>
</one:Notebooks>`

func TestParse(t *testing.T) {
	root, err := Parse(sampleHierarchy)
	require.NoError(t, err)

	assert.Equal(t, KindHierarchy, root.Kind)
	require.Len(t, root.Children, 2)

	work := root.Children[0]
	assert.Equal(t, "nb-1", work.ID)
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, KindNotebook, work.Kind)
	assert.True(t, work.Current)
	require.Len(t, work.Children, 2)

	projects := work.Children[0]
	assert.Equal(t, KindSection, projects.Kind)
	require.Len(t, projects.Children, 2)
	assert.Equal(t, "Roadmap", projects.Children[0].Name)
	assert.True(t, projects.Children[1].Current)

	assert.False(t, root.Children[1].Current)
	assert.Empty(t, root.Children[1].Children)
}

func TestParseSubtreeRoot(t *testing.T) {
	root, err := Parse(`<one:Section xmlns:one="` + Namespace + `" ID="sec-9" name="Inbox"/>`)
	require.NoError(t, err)
	assert.Equal(t, KindSection, root.Kind)
	assert.Equal(t, "sec-9", root.ID)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid xml", `<one:Notebooks`},
		{"empty document", ``},
		{"unexpected root", `<html></html>`},
		{"wrong namespace", `<two:Notebook xmlns:two="urn:other" ID="x"/>`},
		{"missing id", `<one:Notebooks xmlns:one="` + Namespace + `"><one:Notebook name="NoID"/></one:Notebooks>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseSkipsUnknownElements(t *testing.T) {
	root, err := Parse(`<one:Notebooks xmlns:one="` + Namespace + `">
		<one:UnfiledNotes ID="u-1"/>
		<one:Notebook ID="nb-1" name="Work"/>
	</one:Notebooks>`)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "nb-1", root.Children[0].ID)
}

func TestScopeRoundTrip(t *testing.T) {
	for _, scope := range []Scope{ScopeSelf, ScopeChildren, ScopeNotebooks, ScopeSections, ScopePages} {
		parsed, err := ParseScope(scope.String())
		require.NoError(t, err)
		assert.Equal(t, scope, parsed)
	}

	_, err := ParseScope("everything")
	assert.Error(t, err)
}
