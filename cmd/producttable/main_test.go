package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		baseURL     string
		wantBaseURL string
		wantErr     string
	}{
		{
			name:        "defaults",
			wantBaseURL: "http://localhost:8080",
		},
		{
			name:        "flag overrides base url",
			baseURL:     "http://catalog.internal:9000",
			wantBaseURL: "http://catalog.internal:9000",
		},
		{
			name:    "relative base url rejected",
			baseURL: "catalog",
			wantErr: "invalid --base-url",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			cfg, err := loadConfig("testdata/missing.yaml", tt.baseURL)

			// then
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBaseURL, cfg.API.BaseURL)
			assert.Equal(t, "-", cfg.Log.File)
		})
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	// given
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})

	// when
	err := cmd.Execute()

	// then
	assert.Error(t, err)
}
