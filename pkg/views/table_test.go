package views

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/pkg/news"
)

func TestTableView_Render(t *testing.T) {
	desc := "Ships, ports and the people who run them, reported daily from the coast"
	view := CategoryScreen(nil, nil).Table

	var buf bytes.Buffer
	require.NoError(t, view.Render(&buf, []news.Category{
		{ID: "0f8fad5b-d9cb-469f-a165-70867728950e", Name: "Maritime", Slug: "maritime", Description: &desc},
		{ID: "c2", Name: "Weather", Slug: "weather"},
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"ID", "NAME", "SLUG", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.True(t, strings.HasPrefix(lines[2], "0f8fad5b  "))
	assert.Contains(t, lines[2], "...")
	assert.NotContains(t, lines[2], "coast")
	assert.Equal(t, strings.TrimRight(lines[3], " "), lines[3])
	assert.Equal(t, "Total: 2 categories", lines[4])
}

func TestTableView_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TagScreen(nil, nil).Table.Render(&buf, nil))
	assert.Equal(t, "No tags found.\n", buf.String())
}
