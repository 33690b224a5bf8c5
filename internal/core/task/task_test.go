package task

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Work", CategoryWork, true},
		{"work", CategoryWork, true},
		{"  SHOPPING ", CategoryShopping, true},
		{"learning", CategoryLearning, true},
		{"Errands", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("HIGH")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	tk := New(Classification{Text: "Call mom", Category: CategoryPersonal, Priority: PriorityLow, EstimatedMinutes: 10}, "")

	assert.Equal(t, DefaultSource, tk.Source)
	assert.NotNil(t, tk.Tags)
	assert.Empty(t, tk.ID)
	assert.False(t, tk.Synced)

	data, err := json.Marshal(tk.Classification())
	require.NoError(t, err)
	assert.JSONEq(t, `{"task":"Call mom","category":"Personal","priority":"low","estimated_time":10,"tags":[]}`, string(data))
}

func TestTask_ShortID(t *testing.T) {
	assert.Equal(t, "3f2a9c1b", Task{ID: "3f2a9c1b-1111-2222-3333-444455556666"}.ShortID())
	assert.Equal(t, "abc", Task{ID: "abc"}.ShortID())
}
