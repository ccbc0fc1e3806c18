package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"txn-api/internal/schema"
)

// The model hash is printed alongside the build so a CLI can be matched to
// the server's EXPECTED_SCHEMA_HASH.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version and query model hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":    version,
				"commit":     commit,
				"go":         runtime.Version(),
				"model_hash": schema.MustDefault().Hash(),
			}
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(os.Stdout, info)
			}
			_, _ = fmt.Fprintf(os.Stdout, "txn %s (commit %s, %s)\nmodel hash %s\n",
				info["version"], info["commit"], info["go"], info["model_hash"])
			return nil
		},
	}
}
