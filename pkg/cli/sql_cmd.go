package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"txn-api/internal/domain"
	"txn-api/internal/normalize"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
	"txn-api/internal/service/transaction"
	"txn-api/internal/warehouse"
)

// offline builds queries without a warehouse connection.
type offline struct {
	normalizer *normalize.Normalizer
	svc        *transaction.Service
}

func newOffline(g *globals) (*offline, error) {
	tables, err := normalize.LoadAliasTables(g.aliases)
	if err != nil {
		return nil, fmt.Errorf("alias tables: %w", err)
	}
	dialect, err := querybuilder.DialectForDriver(warehouse.DriverName(g.dialect))
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := transaction.NewService(schema.MustDefault(), nil, querybuilder.Options{Dialect: dialect}, logger)
	return &offline{
		normalizer: normalize.New(tables, 0, 0),
		svc:        svc,
	}, nil
}

// validate normalizes args and builds the data query.
func (o *offline) validate(args []string) (transaction.Validation, error) {
	raw, err := parseParamArgs(args)
	if err != nil {
		return transaction.Validation{}, err
	}
	n, err := o.normalizer.Normalize(raw)
	if err != nil {
		kind := "validation_error"
		var qb domain.QueryBuildError
		if errors.As(err, &qb) {
			kind = qb.Kind()
		}
		return transaction.Validation{Error: err.Error(), ErrorType: kind}, nil
	}
	return o.svc.Validate(n.Params), nil
}

func newSQLCmd(g *globals) *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "sql [key=value ...]",
		Short: "Print the SQL generated for query parameters",
		Long: "Normalizes the parameters exactly as the server does and prints the generated\n" +
			"data query. Parameters are applied in argument order.",
		Example: "  txn sql industry=tech country=usa year=gte:2020 orderBy=year:desc limit=10",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(g)
			if err != nil {
				return err
			}
			v, err := o.validate(args)
			if err != nil {
				return err
			}
			if !v.Valid {
				return fmt.Errorf("%s: %s", v.ErrorType, v.Error)
			}

			if getOutputFormat(cmd) == outputJSON {
				return printJSON(os.Stdout, map[string]any{
					"sql":        v.SQL,
					"args":       v.Args,
					"inline_sql": v.InlineSQL,
				})
			}
			if inline {
				_, _ = fmt.Fprintln(os.Stdout, v.InlineSQL)
				return nil
			}
			_, _ = fmt.Fprintln(os.Stdout, v.SQL)
			if len(v.Args) > 0 {
				_, _ = fmt.Fprintf(os.Stderr, "-- args: %v\n", v.Args)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&inline, "inline", false, "Print the query with arguments inlined")

	return cmd
}

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [key=value ...]",
		Short: "Check query parameters offline",
		Long:  "Reports whether the parameters build a valid query, and the joins, filters and ordering they produce.",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOffline(g)
			if err != nil {
				return err
			}
			v, err := o.validate(args)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == outputJSON {
				if err := printJSON(os.Stdout, v); err != nil {
					return err
				}
			} else {
				printValidation(v)
			}
			if !v.Valid {
				return errInvalid
			}
			return nil
		},
	}
}

func printValidation(v transaction.Validation) {
	if !v.Valid {
		fmt.Fprintf(os.Stderr, "Query is invalid (%s): %s\n", v.ErrorType, v.Error)
		return
	}
	rows := [][]string{{"sql", v.InlineSQL}}
	if d := v.Description; d != nil {
		rows = append(rows,
			[]string{"joins", strings.Join(d.Joins, ", ")},
			[]string{"select", strings.Join(d.Select, ", ")},
			[]string{"where", strings.Join(d.Where, " AND ")},
			[]string{"group by", strings.Join(d.GroupBy, ", ")},
			[]string{"order by", strings.Join(d.OrderBy, ", ")},
		)
		if d.Limit != nil {
			rows = append(rows, []string{"limit", fmt.Sprint(*d.Limit)})
		}
		if d.Offset != nil {
			rows = append(rows, []string{"offset", fmt.Sprint(*d.Offset)})
		}
	}
	printTable(os.Stdout, []string{"part", "value"}, rows)
	_, _ = fmt.Fprintln(os.Stdout, "Query is valid.")
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the logical fields accepted in filters, select, groupBy and orderBy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := schema.MustDefault().Fields()
			columns := []string{"name", "sql", "type", "join"}
			rows := make([][]string, len(fields))
			for i, f := range fields {
				rows[i] = []string{f.Name, f.SQL(), string(f.Type), f.JoinKey}
			}
			switch getOutputFormat(cmd) {
			case outputJSON:
				out := make([]map[string]string, len(rows))
				for i, r := range rows {
					out[i] = map[string]string{"name": r[0], "sql": r[1], "type": r[2], "join": r[3]}
				}
				return printJSON(os.Stdout, out)
			case outputCSV:
				return printCSV(os.Stdout, columns, rows)
			default:
				printTable(os.Stdout, columns, rows)
				return nil
			}
		},
	}
}
