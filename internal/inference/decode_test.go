package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  reply
	}{
		{"bare", `{"category":"Work","tags":["a"]}`, reply{Category: "Work", Tags: []string{"a"}}},
		{"fenced", "```json\n{\"category\":\"Health\"}\n```", reply{Category: "Health"}},
		{"prose around", `Here you go: {"category":"Shopping"} hope that helps`, reply{Category: "Shopping"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeObject[reply](tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeObject_Errors(t *testing.T) {
	for _, input := range []string{"", "no json here", `{"category":`, `{"tags":"not-a-list"}`} {
		_, err := DecodeObject[reply](input)
		assert.ErrorIs(t, err, ErrParse, "input %q", input)
	}
}

func TestDecodeArray(t *testing.T) {
	ids, err := DecodeArray[string](`["a1", "b2"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2"}, ids)

	ids, err = DecodeArray[string]("Related tasks:\n[]")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = DecodeArray[string](`none`)
	assert.ErrorIs(t, err, ErrParse)

	_, err = DecodeArray[string](`[1, 2]`)
	assert.ErrorIs(t, err, ErrParse)
}
