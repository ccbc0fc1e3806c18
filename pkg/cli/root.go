// Package cli implements the txn command-line tool: offline SQL generation
// and validation, warehouse maintenance, and queries against a running
// transaction API server.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// errInvalid reports a failed check whose details were already printed.
var errInvalid = errors.New("invalid")

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errInvalid) {
			return 1
		}
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == outputJSON {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// globals are the persistent flag values after profile resolution.
type globals struct {
	host    string
	output  string
	profile string
	aliases string
	dialect string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	client := NewClient("")

	rootCmd := &cobra.Command{
		Use:           "txn",
		Short:         "Transaction query API CLI",
		Long:          "Build and validate transaction queries offline, maintain the warehouse, and query a running API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load config from profile if flags/env not set
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional
				cfg = emptyUserConfig()
			}
			p, err := cfg.ActiveProfile(g.profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			resolve(cmd, "host", &g.host, "TXN_HOST", p.Host)
			resolve(cmd, "output", &g.output, "TXN_OUTPUT", p.Output)
			resolve(cmd, "aliases", &g.aliases, "ALIAS_TABLES_PATH", p.Aliases)
			resolve(cmd, "dialect", &g.dialect, "TXN_DIALECT", p.Dialect)

			if err := validateOutputFormat(g.output); err != nil {
				return err
			}
			host, err := normalizeHost(g.host)
			if err != nil {
				return err
			}
			client.BaseURL = host
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&g.output, "output", "o", outputTable, "Output format (table, json, csv)")
	rootCmd.PersistentFlags().StringVarP(&g.profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().StringVar(&g.aliases, "aliases", "", "Alias tables YAML file for name-to-ID translation")
	rootCmd.PersistentFlags().StringVar(&g.dialect, "dialect", "duckdb", "SQL dialect for generated queries (duckdb, sqlite3, pgx)")

	// Offline commands
	rootCmd.AddCommand(newSQLCmd(g))
	rootCmd.AddCommand(newValidateCmd(g))
	rootCmd.AddCommand(newFieldsCmd())

	// Warehouse commands
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newMigrateCmd())

	// Server commands
	rootCmd.AddCommand(newQueryCmd(client))
	rootCmd.AddCommand(newCountCmd(client))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve fills *dst from env or the profile when the flag was not set.
func resolve(cmd *cobra.Command, flag string, dst *string, env, profileVal string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	} else if profileVal != "" {
		*dst = profileVal
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
