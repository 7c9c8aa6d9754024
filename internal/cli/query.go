package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tessera/internal/algebrize"
	"github.com/roach88/tessera/internal/edn"
	"github.com/roach88/tessera/internal/engine"
	"github.com/roach88/tessera/internal/projector"
	"github.com/roach88/tessera/internal/query"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Inputs  []string // ?var=EDN
	Limit   int
	Explain bool
}

// QueryOutput is the JSON payload of a query.
type QueryOutput struct {
	Shape   string   `json:"shape"` // rel | scalar | tuple | coll
	Columns []string `json:"columns"`
	Result  string   `json:"result"` // EDN rendering
	Count   int      `json:"count"`
}

// ExplainOutput is the payload of query --explain.
type ExplainOutput struct {
	SQL        string   `json:"sql,omitempty"`
	Args       []string `json:"args"`
	Columns    []string `json:"columns"`
	KnownEmpty string   `json:"known_empty,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <datalog>",
		Short: "Run a Datalog query",
		Long: `Run a Datalog query against the database.

Inputs bind :in variables to EDN literals. Results print as EDN: a vector of
vectors for relations, a vector for tuples and collections, a single value
for scalars.

Exit codes:
  0 - Query succeeded
  1 - Query failed (parse, schema, type or store error)
  2 - Command error (invalid flags, database not found, etc.)

Examples:
  tessera query '[:find ?e ?ident :where [?e :db/ident ?ident]]'
  tessera query --in '?n="Ada"' '[:find ?e . :in $ ?n :where [?e :person/name ?n]]'
  tessera query --limit 10 --format json '[:find [?v ...] :where [_ :person/age ?v]]'
  tessera query --explain '[:find ?e :where [?e :db/fulltext true]]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Inputs, "in", nil, "bind an :in variable, ?name=EDN (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum result rows, 0 for unlimited (default from config)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the generated SQL instead of running it")

	return cmd
}

func runQuery(opts *QueryOptions, text string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	inputs, err := ParseInputs(opts.Inputs)
	if err != nil {
		return out.Fail(ExitCommandError, "invalid --in", err)
	}

	limit := opts.Limit
	if !cmd.Flags().Changed("limit") {
		limit = opts.config().Query.Limit
	}
	if limit < 0 {
		return out.Fail(ExitCommandError, "invalid --limit", fmt.Errorf("limit must not be negative, got %d", limit))
	}

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.closeStore(st)

	eng := engine.New(st, engine.WithLimit(limit))
	plan, err := eng.Explain(cmd.Context(), text, inputs)
	if err != nil {
		return out.Fail(ExitFailure, "query failed", err)
	}

	if opts.Explain {
		return out.Success(explainOutput(plan, opts.Format))
	}

	res, err := plan.Run(cmd.Context(), st)
	if err != nil {
		return out.Fail(ExitFailure, "query failed", err)
	}
	out.VerboseLog("%d result(s)", res.Len())

	if opts.Format == "json" {
		return out.Success(QueryOutput{
			Shape:   shapeName(res),
			Columns: variableNames(query.FindVariables(plan.Query.Find)),
			Result:  projector.Format(res),
			Count:   res.Len(),
		})
	}
	return out.Success(projector.Format(res))
}

// ParseInputs reads ?name=EDN bindings.
func ParseInputs(raw []string) (algebrize.Inputs, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	inputs := make(algebrize.Inputs, len(raw))
	for _, binding := range raw {
		name, text, ok := strings.Cut(binding, "=")
		if !ok || len(name) < 2 || name[0] != '?' {
			return nil, fmt.Errorf("input %q must be ?name=EDN", binding)
		}
		v := query.Variable(name)
		if _, dup := inputs[v]; dup {
			return nil, fmt.Errorf("input %s given twice", name)
		}
		value, err := edn.ReadLiteral(text)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		inputs[v] = value
	}
	return inputs, nil
}

func explainOutput(plan *engine.Plan, format string) any {
	out := ExplainOutput{Args: []string{}, Columns: []string{}}
	if plan.Graph.IsKnownEmpty() {
		out.KnownEmpty = plan.Graph.Empty.String()
	} else {
		out.SQL = plan.Compiled.SQL
		for _, arg := range plan.Compiled.Args {
			out.Args = append(out.Args, fmt.Sprintf("%v", arg))
		}
		out.Columns = variableNames(query.FindVariables(plan.Query.Find))
	}
	if format == "json" {
		return out
	}

	if out.KnownEmpty != "" {
		return "known empty: " + out.KnownEmpty
	}
	var b strings.Builder
	b.WriteString(out.SQL)
	for i, arg := range out.Args {
		fmt.Fprintf(&b, "\n  ?%d = %s", i+1, arg)
	}
	return b.String()
}

func shapeName(r projector.Results) string {
	switch r.(type) {
	case projector.Rel:
		return "rel"
	case projector.Scalar:
		return "scalar"
	case projector.Tuple:
		return "tuple"
	case projector.Coll:
		return "coll"
	default:
		return "unknown"
	}
}

func variableNames(vars []query.Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	return names
}
