/*
Copyright 2026 The Gridsql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
	"gridsql.io/gridsql/go/vt/sqlexec/node"
	"gridsql.io/gridsql/go/vt/sqlexec/worker"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// scanRequest describes one scan. An empty Partitions scans every
// partition of the node.
type scanRequest struct {
	Map        string
	Partitions string
	Where      string
	Project    string
	Args       []string
}

type scanResult struct {
	Columns []string      `json:"columns"`
	Rows    [][]any       `json:"rows"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// scanPlan is the operator tree of a scan and the names of its columns.
type scanPlan struct {
	Root    engine.Exec
	Columns []string
	Args    []any
}

// plan builds the operator tree for r. The map scan reads each distinct
// attribute once; projections computing on those attributes are evaluated
// by a Project on top of it.
func (r scanRequest) plan(n *node.NodeEngine) (*scanPlan, error) {
	var (
		parts engine.PartitionIDSet
		err   error
	)
	if strings.TrimSpace(r.Partitions) == "" {
		parts, err = engine.AllPartitions(n.PartitionCount())
	} else {
		parts, err = engine.ParsePartitionIDSet(n.PartitionCount(), r.Partitions)
	}
	if err != nil {
		return nil, err
	}

	project := r.Project
	if strings.TrimSpace(project) == "" {
		project = "__key, this"
	}
	projections, err := evalengine.ParseProjections(project)
	if err != nil {
		return nil, err
	}

	var filter evalengine.Expr
	if strings.TrimSpace(r.Where) != "" {
		if filter, err = evalengine.ParsePredicate(r.Where); err != nil {
			return nil, err
		}
	}

	p := &scanPlan{Args: make([]any, 0, len(r.Args))}
	for _, a := range r.Args {
		p.Args = append(p.Args, parseArg(a))
	}
	for _, e := range projections {
		p.Columns = append(p.Columns, e.String())
	}

	columns, offsets, computed := evalengine.SplitColumns(projections)
	if !computed {
		p.Root = engine.NewMapScanExec(r.Map, parts, projections, filter)
		return p, nil
	}
	p.Root = engine.NewProjectExec(engine.NewMapScanExec(r.Map, parts, columns, filter), offsets)
	return p, nil
}

// parseArg reads a query argument given as text. Numbers, booleans and
// null are recognized, anything else is a string.
func parseArg(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return s
}

// runScan executes the scan on the pool and waits for its rows.
func runScan(ctx context.Context, pool *worker.Pool, n *node.NodeEngine, req scanRequest) (*scanResult, error) {
	p, err := req.plan(n)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows := &worker.RowCollector{}
	h, err := pool.Submit(worker.Fragment{
		Root:     p.Root,
		Query:    n.NewQueryContext(ctx, p.Args...),
		Consumer: rows,
	})
	if err != nil {
		return nil, err
	}
	if err := h.Wait(ctx); err != nil {
		return nil, err
	}

	res := &scanResult{Columns: p.Columns, Rows: rows.Values(), Elapsed: time.Since(start)}
	if res.Rows == nil {
		res.Rows = [][]any{}
	}
	return res, nil
}

// formatValue renders a cell for a text table.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case sqltypes.JSONValue:
		return string(v)
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

func renderTable(w io.Writer, res *scanResult) error {
	table := tablewriter.NewWriter(w)
	header := make([]any, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		if err := table.Append(cells); err != nil {
			return err
		}
	}
	return table.Render()
}

// writeResult prints res as a table, JSON or YAML.
func writeResult(w io.Writer, format string, res *scanResult) error {
	switch format {
	case "table":
		return renderTable(w, res)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		b, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	return vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "unknown output format %q: expected table, json or yaml", format)
}

var (
	scanFormat     = "table"
	scanFile       string
	scanMap        = "data"
	scanKeyField   = "id"
	scanPartitions string
	scanWhere      string
	scanProject    string
	scanArgs       []string
	scanExplain    bool
)

// Scan loads a file of documents and scans it once.
var Scan = &cobra.Command{
	Use:   "scan --file <documents.jsonl> [--where <predicate>] [--project <columns>]",
	Short: "Loads JSON documents from a file and prints the rows matching a predicate.",
	Example: "gridscan scan --file orders.jsonl --key-field order_id --where 'this.amount > $1' --arg 100 \\\n" +
		"  --project '__key, this.customer, this.amount:BIGINT' --partitions 0-15",
	Args: cobra.NoArgs,
	RunE: commandScan,
}

func commandScan(cmd *cobra.Command, args []string) error {
	n, err := newNode()
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if scanFile != "-" {
		f, err := os.Open(scanFile)
		if err != nil {
			return fmt.Errorf("failed to open documents: %w", err)
		}
		defer f.Close()
		in = f
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	loaded, err := loadDocuments(ctx, n.MapService(), scanMap, scanKeyField, in)
	if err != nil {
		return err
	}

	req := scanRequest{Map: scanMap, Partitions: scanPartitions, Where: scanWhere, Project: scanProject, Args: scanArgs}
	out := cmd.OutOrStdout()
	if scanExplain {
		p, err := req.plan(n)
		if err != nil {
			return err
		}
		fmt.Fprint(out, engine.ToTree(p.Root))
	}

	pool := worker.NewPoolFromFlags()
	defer pool.Close()
	res, err := runScan(ctx, pool, n, req)
	if err != nil {
		return err
	}
	if err := writeResult(out, scanFormat, res); err != nil {
		return err
	}
	if scanFormat != "table" {
		return nil
	}
	fmt.Fprintf(out, "%s rows from %s documents (%s) in %v\n",
		humanize.Comma(int64(len(res.Rows))), humanize.Comma(loaded.Documents), humanize.Bytes(uint64(loaded.Bytes)), res.Elapsed.Round(time.Microsecond))
	return nil
}

func init() {
	Scan.Flags().StringVar(&scanFile, "file", scanFile, "file of JSON documents, one per line, or - for stdin")
	Scan.Flags().StringVar(&scanMap, "map", scanMap, "name of the map the documents are loaded into")
	Scan.Flags().StringVar(&scanKeyField, "key-field", scanKeyField, "document field holding the entry key")
	Scan.Flags().StringVar(&scanPartitions, "partitions", scanPartitions, "partitions to scan as ids and ranges, e.g. 0,4-7 (default all)")
	Scan.Flags().StringVar(&scanWhere, "where", scanWhere, "predicate entries must satisfy, e.g. this.amount > $1")
	Scan.Flags().StringVar(&scanProject, "project", scanProject, "comma separated columns to output (default \"__key, this\")")
	Scan.Flags().StringSliceVar(&scanArgs, "arg", scanArgs, "query argument bound to $1, $2, ... in order")
	Scan.Flags().StringVar(&scanFormat, "format", scanFormat, "output format: table, json or yaml")
	Scan.Flags().BoolVar(&scanExplain, "explain", scanExplain, "print the operator tree before the rows")
	_ = Scan.MarkFlagRequired("file")

	Root.AddCommand(Scan)
}
