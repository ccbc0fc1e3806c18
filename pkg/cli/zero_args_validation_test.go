package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandsRejectWrongPositionalArgs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	bootstrap := newRootCmd()
	bootstrap.SetArgs([]string{"config", "set-profile", "--name", "default", "--host", "http://127.0.0.1:65535"})
	require.NoError(t, bootstrap.Execute())

	const unexpected = `unknown command "extra"`
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "version", args: []string{"version", "extra"}, wantErr: unexpected},
		{name: "fields", args: []string{"fields", "extra"}, wantErr: unexpected},
		{name: "schema hash", args: []string{"schema", "hash", "extra"}, wantErr: unexpected},
		{name: "schema check", args: []string{"schema", "check", "--mode", "static", "extra"}, wantErr: unexpected},
		{name: "migrate", args: []string{"migrate", "--dsn", ":memory:", "extra"}, wantErr: unexpected},
		{name: "config show", args: []string{"config", "show", "extra"}, wantErr: unexpected},
		{name: "config set-profile", args: []string{"config", "set-profile", "--name", "p", "extra"}, wantErr: unexpected},
		{name: "use-profile without name", args: []string{"config", "use-profile"}, wantErr: "accepts 1 arg(s), received 0"},
		{name: "use-profile with two names", args: []string{"config", "use-profile", "a", "b"}, wantErr: "accepts 1 arg(s), received 2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			cmd := newRootCmd()
			cmd.SetArgs(tc.args)
			err := cmd.Execute()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
