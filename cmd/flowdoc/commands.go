package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/flowdoc/internal/flow"
	flowserver "github.com/HendryAvila/flowdoc/internal/server"
	"github.com/HendryAvila/flowdoc/internal/store"
)

// exitError carries a process exit code without an error message; the
// command has already reported the problem.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitCode(err error) (int, bool) {
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code, true
	}
	return 0, false
}

// --- validate ---

func newValidateCmd(c *cli) *cobra.Command {
	var lenient bool
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate flow documents and print every violation",
		Long: "Validate the given files, or every document in the flows directory " +
			"when no file is given. Exits with status 1 if any document is invalid.",
		PreRunE: c.setupConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				var err error
				if paths, err = storedPaths(c.cfg.FlowsDir); err != nil {
					return err
				}
			}
			invalid := validateFiles(cmd.OutOrStdout(), paths, flow.ValidateOptions{Strict: !lenient})
			if invalid > 0 {
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Accept any version tag.")
	return cmd
}

func storedPaths(dir string) ([]string, error) {
	entries, err := store.NewFileStore(dir).List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.File))
	}
	return paths, nil
}

// validateFiles reports each file's result to w and returns how many
// failed.
func validateFiles(w io.Writer, paths []string, opts flow.ValidateOptions) int {
	invalid := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", path, err)
			invalid++
			continue
		}
		res := flow.ValidateBytes(data, opts)
		if res.Valid {
			fmt.Fprintf(w, "%s: ok\n", path)
			continue
		}
		invalid++
		fmt.Fprintf(w, "%s: %d violation(s)\n", path, len(res.Violations))
		for _, v := range res.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
	return invalid
}

// --- list ---

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List flow documents in the flows directory",
		Args:    cobra.NoArgs,
		PreRunE: c.setupConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFlows(cmd.OutOrStdout(), store.NewFileStore(c.cfg.FlowsDir))
		},
	}
}

func listFlows(w io.Writer, s *store.FileStore) error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "no flows in %s\n", s.Dir())
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHASES\tNODES\tMODIFIED")
	for _, e := range entries {
		name, phases, nodes := "-", "-", "-"
		if f, err := s.Load(e.ID); err == nil {
			name = f.Name
			phases = fmt.Sprint(len(f.Phases))
			nodes = fmt.Sprint(len(f.Nodes))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, name, phases, nodes, e.Modified.Format(time.RFC3339))
	}
	return tw.Flush()
}

// --- version ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowdoc v%s\n", flowserver.Version)
		},
	}
}
