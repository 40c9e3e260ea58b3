package markup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/casedocs/internal/casefile"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestBuilder() (*Builder, *casefile.Normalizer) {
	n := casefile.NewNormalizer(casefile.WithClock(func() time.Time { return fixedNow }))
	return NewBuilder(n.Table(), WithClock(func() time.Time { return fixedNow })), n
}

func item(n *casefile.Normalizer, id, first, last string) casefile.Item {
	c := casefile.DecodeCase(casefile.Record{"id": id, "firstName": first, "lastName": last, "program": "Residential"})
	return casefile.NewItem(n, c)
}

func TestCase_Sections(t *testing.T) {
	b, n := newTestBuilder()
	c := casefile.DecodeCase(casefile.Record{
		"id":               "7",
		"firstName":        "Maria",
		"last_name":        "Santos",
		"birthdate":        "2010-06-15",
		"problemPresented": "Left home",
		"briefHistory":     "   ",
		"familyMembers": []any{
			map[string]any{"name": "Jose", "relation": "Father"},
		},
	})

	out, err := b.Case(c, n.Normalize(c.Fields))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<h1>Case Report</h1>")
	assert.Contains(t, html, "Generated 2024-06-15 09:00 UTC")
	assert.Contains(t, html, "<h2>Santos, Maria</h2>")
	assert.Contains(t, html, `<td class="label">Age</td><td>14</td>`)
	assert.Contains(t, html, "<td>Jose</td><td>Father</td>")
	assert.Contains(t, html, "<h3>Vital Signs</h3>")
	assert.Contains(t, html, "No records")

	assert.Contains(t, html, "<h3>Problem Presented</h3>")
	assert.NotContains(t, html, "Brief History", "empty narratives are omitted")
	assert.NotContains(t, html, "Religion", "empty summary values are omitted")
}

func TestCase_EscapesValues(t *testing.T) {
	b, n := newTestBuilder()
	c := casefile.DecodeCase(casefile.Record{
		"firstName":        `<b>Ana</b>`,
		"problemPresented": `<script>alert("x")</script> & "quotes"`,
	})

	out, err := b.Case(c, n.Normalize(c.Fields))
	require.NoError(t, err)
	html := string(out)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>Ana</b>")
	assert.Contains(t, html, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; &#34;quotes&#34;")
	assert.Contains(t, html, "&lt;b&gt;Ana&lt;/b&gt;")
}

func TestCase_Deterministic(t *testing.T) {
	b, n := newTestBuilder()
	c := casefile.DecodeCase(casefile.Record{"firstName": "Ana", "assessment": "Stable"})

	first, err := b.Case(c, n.Normalize(c.Fields))
	require.NoError(t, err)
	second, err := b.Case(c, n.Normalize(c.Fields))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBatch(t *testing.T) {
	b, n := newTestBuilder()
	items := []casefile.Item{
		item(n, "7", "Ana", "Reyes"),
		item(n, "3", "Ben", "Cruz"),
		item(n, "9", "Carla", "Diaz"),
	}

	t.Run("summary then sections in input order", func(t *testing.T) {
		out, err := b.Batch(items, false)
		require.NoError(t, err)
		html := string(out)

		assert.Contains(t, html, "<h2>Summary</h2>")
		assert.Contains(t, html, "<td>Reyes, Ana</td><td></td><td>Residential</td>")
		assert.Equal(t, 3, strings.Count(html, `<div class="case">`))

		reyes := strings.Index(html, "<h2>Reyes, Ana</h2>")
		cruz := strings.Index(html, "<h2>Cruz, Ben</h2>")
		diaz := strings.Index(html, "<h2>Diaz, Carla</h2>")
		assert.True(t, reyes > 0 && reyes < cruz && cruz < diaz)
	})

	t.Run("list only", func(t *testing.T) {
		out, err := b.Batch(items, true)
		require.NoError(t, err)
		html := string(out)

		assert.Contains(t, html, "<td>Diaz, Carla</td>")
		assert.NotContains(t, html, `<div class="case">`)
	})

	t.Run("empty batch", func(t *testing.T) {
		out, err := b.Batch(nil, false)
		require.NoError(t, err)
		assert.Contains(t, string(out), "No records")
	})
}
