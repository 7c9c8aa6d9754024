package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tessera/internal/vocab"
)

// InstalledAttribute pairs an ident with its entid.
type InstalledAttribute struct {
	Ident string `json:"ident"`
	Entid int64  `json:"entid"`
}

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <vocabulary.cue>",
		Short: "Install attributes from a CUE vocabulary",
		Long: `Install the attributes defined in a CUE vocabulary file.

Attributes already installed with identical metadata keep their entids.
An attribute installed with different metadata is an error.

Example:
  tessera install ./people.cue
  tessera install --db ./facts.db ./people.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInstall(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	defs, err := vocab.LoadFile(path)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to load vocabulary", err)
	}
	out.VerboseLog("loaded %d attribute(s) from %s", len(defs), path)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, "failed to open database", err)
	}
	defer opts.closeStore(st)

	entids, err := st.InstallAttributes(cmd.Context(), defs)
	if err != nil {
		return out.Fail(ExitFailure, "failed to install attributes", err)
	}

	installed := make([]InstalledAttribute, len(defs))
	for i, d := range defs {
		installed[i] = InstalledAttribute{Ident: d.Ident.String(), Entid: int64(entids[i])}
	}
	if opts.Format == "json" {
		return out.Success(installed)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Installed %d attribute(s):", len(installed))
	for _, a := range installed {
		fmt.Fprintf(&b, "\n  %s %d", a.Ident, a.Entid)
	}
	return out.Success(b.String())
}
