package urllist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadText(t *testing.T) {
	urls, err := ReadText(strings.NewReader(`
# majors
https://golf.example.com/masters
   https://golf.example.com/open   

https://golf.example.com/us-open
`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://golf.example.com/masters",
		"https://golf.example.com/open",
		"https://golf.example.com/us-open",
	}, urls)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "text file",
			file:    "urls.txt",
			content: "https://a.example.com\n#skip\nhttps://b.example.com\n",
			want:    []string{"https://a.example.com", "https://b.example.com"},
		},
		{
			name:    "yaml file",
			file:    "urls.yaml",
			content: "urls:\n  - https://a.example.com\n  - ' '\n  - https://b.example.com\n",
			want:    []string{"https://a.example.com", "https://b.example.com"},
		},
		{
			name:    "empty yaml",
			file:    "urls.yml",
			content: "",
			want:    nil,
		},
		{
			name:    "invalid yaml",
			file:    "urls.yml",
			content: "urls: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	file := writeFile(t, "urls.txt", "https://b.example.com\nhttps://a.example.com\n")

	urls, err := Collect([]string{"https://a.example.com", " "}, []string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, urls)
}
