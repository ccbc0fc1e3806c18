package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txn-api/internal/querybuilder"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		want    string
		wantErr bool
	}{
		{name: "valid http", host: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{name: "valid https", host: "https://api.example.com", want: "https://api.example.com"},
		{name: "trailing slash trimmed", host: " http://localhost:8080/ ", want: "http://localhost:8080"},
		{name: "missing scheme", host: "localhost:8080", wantErr: true},
		{name: "bogus scheme", host: "://bad", wantErr: true},
		{name: "empty", host: "", wantErr: true},
		{name: "path not allowed", host: "http://localhost:8080/api/v1", wantErr: true},
		{name: "query not allowed", host: "http://localhost:8080?x=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeHost(tt.host)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParamArgs(t *testing.T) {
	got, err := parseParamArgs([]string{"industry=tech", "country=usa&year=gte:2020", "comments=", "select=a=b"})
	require.NoError(t, err)
	assert.Equal(t, []querybuilder.Param{
		{Key: "industry", Value: "tech"},
		{Key: "country", Value: "usa"},
		{Key: "year", Value: "gte:2020"},
		{Key: "comments", Value: ""},
		{Key: "select", Value: "a=b"},
	}, got)

	_, err = parseParamArgs([]string{"industry"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	_, err = parseParamArgs([]string{"=tech"})
	require.Error(t, err)
}
