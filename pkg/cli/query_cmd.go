package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [key=value ...]",
		Short: "Query transactions on a running API server",
		Long: "Sends the parameters, in argument order, to GET /api/v1/transactions and prints\n" +
			"the rows. page and pageSize switch to paginated output.",
		Example: "  txn query industry=tech type=acquisition select=transactionId,companyName limit=20\n" +
			"  txn query 'country=usa&year=gte:2020&page=2&pageSize=50' -o csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParamArgs(args)
			if err != nil {
				return err
			}
			resp, err := client.Get(cmd.Context(), "/transactions", params)
			if err != nil {
				return err
			}
			return printRowsResponse(cmd, resp)
		},
	}
	return cmd
}

func printRowsResponse(cmd *cobra.Command, resp *Response) error {
	if getOutputFormat(cmd) == outputJSON {
		var pretty any
		if err := json.Unmarshal(resp.Data, &pretty); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		out := map[string]any{"data": pretty}
		if resp.Pagination != nil {
			out["pagination"] = resp.Pagination
		}
		return printJSON(os.Stdout, out)
	}

	columns, rows, err := decodeRows(resp.Data)
	if err != nil {
		return err
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, c := range columns {
			cells[i][j] = formatCell(row[c])
		}
	}

	if getOutputFormat(cmd) == outputCSV {
		return printCSV(os.Stdout, columns, cells)
	}
	printTable(os.Stdout, columns, cells)
	if p := resp.Pagination; p != nil {
		fmt.Fprintf(os.Stderr, "\n(page %d of %d, %d rows total)\n", p.Page, p.TotalPages, p.TotalCount)
	} else {
		fmt.Fprintf(os.Stderr, "\n(%d rows)\n", len(rows))
	}
	return nil
}

func newCountCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "count [key=value ...]",
		Short: "Count matching transactions on a running API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParamArgs(args)
			if err != nil {
				return err
			}
			resp, err := client.Get(cmd.Context(), "/transactions/count", params)
			if err != nil {
				return err
			}
			var out struct {
				Count int64 `json:"count"`
			}
			if err := json.Unmarshal(resp.Data, &out); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(os.Stdout, out)
			}
			_, _ = fmt.Fprintln(os.Stdout, out.Count)
			return nil
		},
	}
}
