package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"formulaplace/internal/client"
	"formulaplace/internal/config"
	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

type formulaService interface {
	List(ctx context.Context, title string) ([]formula.Formula, error)
	Get(ctx context.Context, id uuid.UUID) (formula.Formula, error)
	Create(ctx context.Context, draft formula.Draft) (formula.Formula, error)
	Update(ctx context.Context, id uuid.UUID, patch formula.Patch) (formula.Formula, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type serviceFactory func(*options) (formulaService, error)

type options struct {
	apiURL     string
	timeout    time.Duration
	logLevel   string
	jsonOutput bool

	svc formulaService
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "formulactl",
		Short:         "Manage formulas stored in Formula Place",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applog.ReplaceLogger(applog.NewWriterLogger(cmd.ErrOrStderr()))
			if err := applog.SetLevel(opts.logLevel); err != nil {
				return err
			}
			if opts.apiURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load configuration: %w", err)
				}
				opts.apiURL = cfg.API.BaseURL
				if !cmd.Flags().Changed("timeout") {
					opts.timeout = cfg.API.Timeout
				}
			}
			svc, err := factory(opts)
			if err != nil {
				return err
			}
			opts.svc = svc
			applog.Debug(cmd.Context(), "formula service ready", "api", opts.apiURL, "timeout", opts.timeout.String())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", "", "formulas API root (defaults to API_BASE_URL)")
	flags.DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print records as JSON")

	root.AddCommand(
		newListCmd(opts),
		newGetCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func newListCmd(opts *options) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List formulas, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formulas, err := opts.svc.List(cmd.Context(), title)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), formulas)
			}
			if len(formulas) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No formulas yet.")
				return nil
			}
			return writeTable(cmd.OutOrStdout(), formulas)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "only list formulas whose title contains this text")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := opts.svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), opts, f)
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var draft formula.Draft
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a formula",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.svc.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), opts, f)
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "formula title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "optional description")
	cmd.Flags().StringVar(&draft.Content, "content", "", "formula in LaTeX")
	return cmd
}

func newUpdateCmd(opts *options) *cobra.Command {
	var title, description, content string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the given fields of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch formula.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if patch.Empty() {
				return errors.New("nothing to update: pass --title, --description or --content")
			}
			f, err := opts.svc.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), opts, f)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&content, "content", "", "new LaTeX content")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("refusing to delete %s without --yes", id)
			}
			if err := opts.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create formulas from a YAML file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			drafts, err := formula.DecodeDrafts(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "%d formulas valid\n", len(drafts))
				return nil
			}
			for i, draft := range drafts {
				f, err := opts.svc.Create(cmd.Context(), draft)
				if err != nil {
					return fmt.Errorf("import stopped after %d of %d formulas: %w", i, len(drafts), err)
				}
				fmt.Fprintf(out, "created %s\t%s\n", f.ID, f.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without creating anything")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid formula id %q", raw)
	}
	return id, nil
}

func writeRecord(w io.Writer, opts *options, f formula.Formula) error {
	if opts.jsonOutput {
		return writeJSON(w, f)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", f.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", f.Title)
	if f.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", f.Description)
	}
	fmt.Fprintf(tw, "Content:\t%s\n", f.Content)
	fmt.Fprintf(tw, "Created:\t%s\n", f.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", f.UpdatedAt.UTC().Format(time.RFC3339))
	return tw.Flush()
}

func writeTable(w io.Writer, formulas []formula.Formula) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
	for _, f := range formulas {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Title, f.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
