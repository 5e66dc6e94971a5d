package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "memory", "-a", ":8080"},
			allowed: []string{"-d"},
			want:    []string{"-d", "memory"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=cfg.json", "-a", ":8080"},
			allowed: []string{"-config"},
			want:    []string{"-config=cfg.json"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "positional", "--y=2"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-c", "-config=alt.json"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "-config=alt.json"},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-i", "4", "-l", "30", "-i", "8"},
			allowed: []string{"-i", "-l"},
			want:    []string{"-i", "4", "-l", "30", "-i", "8"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/short.json", ConfigPath([]string{"-c", "/etc/short.json"}))
	assert.Equal(t, "/etc/long.json", ConfigPath([]string{"-a", ":1", "-config", "/etc/long.json"}))
	assert.Equal(t, "/etc/2.json", ConfigPath([]string{"-c", "/etc/1.json", "-config=/etc/2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}
