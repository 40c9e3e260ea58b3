package casefile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables(t *testing.T) {
	c := DecodeCase(Record{
		"id": "7",
		"family_members": []any{
			map[string]any{"name": "Jose", "relationship": "Father", "age": 41},
		},
		"vitalSigns": []any{
			map[string]any{"date": "2024-03-05T08:00:00Z", "bp": "110/70"},
		},
	})

	tables := c.Tables()
	require.Len(t, tables, 7)

	titles := make([]string, 0, len(tables))
	for _, tb := range tables {
		titles = append(titles, tb.Title)
	}
	assert.Equal(t, []string{
		"Family Composition", "Extended Family", "Educational Attainment",
		"Sacramental Records", "Previous Agencies", "Life Skills", "Vital Signs",
	}, titles)

	family := tables[0]
	require.Len(t, family.Rows, 1)
	assert.Equal(t, []string{"Jose", "Father", "41", "", "", "", "", "", ""}, family.Rows[0])
	assert.Equal(t, FamilyMinRows, family.MinRows)

	vitals := tables[6]
	require.Len(t, vitals.Rows, 1)
	assert.Equal(t, "2024-03-05", vitals.Rows[0][0])
	assert.Equal(t, "110/70", vitals.Rows[0][1])

	for _, tb := range tables {
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Columns), tb.Title)
		}
	}
}

func TestTable_Padded(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		minRows  int
		wantRows int
	}{
		{"empty", 0, 3, 3},
		{"short", 1, 5, 5},
		{"full", 3, 3, 3},
		{"longer than minimum", 6, 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := Table{Columns: []string{"A", "B"}, MinRows: tt.minRows}
			for i := 0; i < tt.rows; i++ {
				tb.Rows = append(tb.Rows, []string{"x", "y"})
			}

			padded := tb.Padded()
			require.Len(t, padded, tt.wantRows)
			for i, row := range padded {
				assert.Len(t, row, 2)
				if i >= tt.rows {
					assert.Equal(t, []string{"", ""}, row)
				}
			}
		})
	}
}

func TestItem_SummaryRow(t *testing.T) {
	n := NewNormalizer(WithClock(func() time.Time {
		return time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	}))

	item := NewItem(n, DecodeCase(Record{
		"id":          "7",
		"first_name":  "Ana",
		"last_name":   "Reyes",
		"birthdate":   "2010-06-15",
		"programType": "Residential",
		"updated_at":  "2024-05-01T09:30:00Z",
	}))
	assert.Equal(t, []string{"Reyes, Ana", "13", "Residential", "2024-05-01"}, item.SummaryRow())

	bare := NewItem(n, DecodeCase(Record{"id": "3"}))
	assert.Equal(t, []string{"Case 3", "", "", ""}, bare.SummaryRow())
	assert.Len(t, SummaryColumns, len(bare.SummaryRow()))
}
