package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tessera/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	UserOnly bool
}

// AttributeInfo describes one installed attribute.
type AttributeInfo struct {
	Ident       string `json:"ident"`
	Entid       int64  `json:"entid"`
	ValueType   string `json:"valueType"`
	Cardinality string `json:"cardinality"`
	Unique      string `json:"unique,omitempty"`
	Index       bool   `json:"index,omitempty"`
	Fulltext    bool   `json:"fulltext,omitempty"`
	IsComponent bool   `json:"isComponent,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List installed attributes",
		Long: `List every attribute in the database with its metadata, in entid order.

Examples:
  tessera schema
  tessera schema --user --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.UserOnly, "user", false, "omit bootstrap attributes")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.closeStore(st)

	sch, err := st.Schema(cmd.Context())
	if err != nil {
		return out.Fail(ExitFailure, "failed to read schema", err)
	}

	attrs := describeSchema(sch, opts.UserOnly)
	if opts.Format == "json" {
		return out.Success(attrs)
	}

	var b strings.Builder
	for i, a := range attrs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(a.String())
	}
	if len(attrs) == 0 {
		b.WriteString("No attributes installed.")
	}
	return out.Success(b.String())
}

// describeSchema lists attributes in entid order.
func describeSchema(sch *schema.Schema, userOnly bool) []AttributeInfo {
	infos := []AttributeInfo{}
	for _, e := range sch.AttributeEntids() {
		if userOnly && e < schema.PartUserStart {
			continue
		}
		attr, _ := sch.Attribute(e)
		ident, _ := sch.Ident(e)
		info := AttributeInfo{
			Ident:       ident.String(),
			Entid:       int64(e),
			ValueType:   attr.ValueType.String(),
			Cardinality: attr.Cardinality.String(),
			Index:       attr.Index,
			Fulltext:    attr.Fulltext,
			IsComponent: attr.Component,
		}
		if attr.Unique != schema.UniqueNone {
			info.Unique = attr.Unique.String()
		}
		infos = append(infos, info)
	}
	return infos
}

// String renders the attribute as one line: ident, entid, type,
// cardinality, then any flags.
func (a AttributeInfo) String() string {
	flags := []string{a.ValueType, a.Cardinality}
	if a.Unique != "" {
		flags = append(flags, "unique="+a.Unique)
	}
	if a.Index {
		flags = append(flags, "index")
	}
	if a.Fulltext {
		flags = append(flags, "fulltext")
	}
	if a.IsComponent {
		flags = append(flags, "component")
	}
	return fmt.Sprintf("%-28s %-10d %s", a.Ident, a.Entid, strings.Join(flags, " "))
}
