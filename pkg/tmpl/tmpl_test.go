package tmpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "hello {{ .Name }}",
			data: map[string]string{"Name": "world"},
			want: "hello world",
		},
		{
			name: "struct data",
			tmpl: "{{ .Name }} at {{ .Path }}",
			data: struct {
				Name string
				Path string
			}{Name: "test", Path: "/tmp"},
			want: "test at /tmp",
		},
		{
			name: "join",
			tmpl: `{{ join .Tags ", " }}`,
			data: map[string][]string{"Tags": {"a", "b"}},
			want: "a, b",
		},
		{
			name: "hashtags",
			tmpl: `{{ hashtags .Tags }}`,
			data: map[string][]string{"Tags": {"home", " ", "deep work"}},
			want: "#home #deep-work",
		},
		{
			name: "hashtags empty",
			tmpl: `[{{ hashtags .Tags }}]`,
			data: map[string][]string{"Tags": nil},
			want: "[]",
		},
		{
			name: "time helpers",
			tmpl: `{{ date .At }} {{ rfc3339 .At }}`,
			data: map[string]time.Time{"At": stamp},
			want: "2024-03-09 2024-03-09T14:05:00Z",
		},
		{
			name:    "missing key",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{},
			wantErr: true,
		},
		{
			name:    "parse error",
			tmpl:    "{{ .Name",
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
