package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/reglet-docindex/loader"
	"github.com/reglet-dev/reglet-docindex/logging"
	"github.com/reglet-dev/reglet-docindex/manifest"
	"github.com/reglet-dev/reglet-docindex/render"
	"github.com/reglet-dev/reglet-docindex/schema"
	"github.com/reglet-dev/reglet-docindex/sidebar"
)

// defaultManifestName is written by lock when neither -o nor loader.manifest is set.
const defaultManifestName = "docindex.lock"

type indexSummary struct {
	Root           string          `json:"root"`
	Files          int             `json:"files"`
	Fragments      int             `json:"fragments"`
	Capabilities   int             `json:"capabilities"`
	Records        int             `json:"records"`
	Modules        int             `json:"modules"`
	SidebarModules int             `json:"sidebar_modules"`
	Skipped        []skippedFile   `json:"skipped,omitempty"`
	Warnings       []recordWarning `json:"warnings,omitempty"`
}

type skippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type recordWarning struct {
	Module     string `json:"module"`
	Capability string `json:"capability,omitempty"`
	Record     int    `json:"record"`
	Reason     string `json:"reason"`
}

func (a *app) newIndexCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Load a documentation tree and summarize what was indexed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := a.rootFor(args)
			ix, report, err := a.load(cmd.Context(), root)
			if err != nil {
				return err
			}

			summary := indexSummary{
				Root:           root,
				Files:          report.Files,
				Fragments:      report.Fragments,
				Capabilities:   ix.Implementors.Len(),
				Records:        ix.Implementors.RecordCount(),
				Modules:        len(ix.Implementors.Modules()),
				SidebarModules: report.SidebarModules,
			}
			for _, s := range report.Skipped {
				summary.Skipped = append(summary.Skipped, skippedFile{Path: s.Path, Reason: s.Reason})
			}
			for _, w := range report.Warnings {
				summary.Warnings = append(summary.Warnings, recordWarning{
					Module: w.Module, Capability: w.Capability, Record: w.Record, Reason: w.Reason,
				})
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return writeSummary(a, summary)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func writeSummary(a *app, s indexSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %s: %d files, %d fragments from %d modules\n", s.Root, s.Files, s.Fragments, s.Modules)
	fmt.Fprintf(&b, "  %d capabilities, %d implementation records\n", s.Capabilities, s.Records)
	fmt.Fprintf(&b, "  %d sidebar modules\n", s.SidebarModules)
	for _, sk := range s.Skipped {
		fmt.Fprintf(&b, "skipped %s: %s\n", sk.Path, sk.Reason)
	}
	if n := len(s.Warnings); n > 0 {
		fmt.Fprintf(&b, "%d malformed records skipped\n", n)
	}
	_, err := fmt.Fprint(a.out, b.String())
	return err
}

func (a *app) newShowCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show [capability]",
		Short: "Print the implementors of a capability",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return &ExitError{Code: 2, Message: "show needs a capability or --all"}
			}

			ix, _, err := a.load(cmd.Context(), a.cfg.Root)
			if err != nil {
				return err
			}
			consumer := render.NewTextConsumer()
			if err := ix.RegisterConsumer(consumer); err != nil {
				return err
			}

			if all {
				return consumer.RenderAll(a.out)
			}
			if len(consumer.Records(args[0])) == 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("no implementors recorded for %q", args[0])}
			}
			return consumer.Render(a.out, args[0])
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every capability")
	return cmd
}

func (a *app) newSidebarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sidebar <module> [kind...]",
		Short: "Print the sidebar items of a module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, _, err := a.load(cmd.Context(), a.cfg.Root)
			if err != nil {
				return err
			}

			kinds := make([]sidebar.Kind, 0, len(args)-1)
			for _, k := range args[1:] {
				kind := sidebar.Kind(k)
				if !kind.Known() {
					logging.FromContext(cmd.Context()).Warn("unknown sidebar kind", "kind", k)
				}
				kinds = append(kinds, kind)
			}

			if err := render.WriteSidebar(a.out, ix.Sidebar, args[0], kinds...); err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return nil
		},
	}
}

func (a *app) newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick capabilities interactively and print their implementors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, _, err := a.load(cmd.Context(), a.cfg.Root)
			if err != nil {
				return err
			}
			consumer := render.NewTextConsumer()
			if err := ix.RegisterConsumer(consumer); err != nil {
				return err
			}

			err = render.NewBrowser(consumer, a.out).Run()
			if errors.Is(err, render.ErrNotInteractive) || errors.Is(err, render.ErrNothingToBrowse) {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return err
		},
	}
}

func (a *app) newLockCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "lock [root]",
		Short: "Write a manifest pinning every producer file of a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			root := a.rootFor(args)

			path := output
			if path == "" {
				path = a.manifestPath(root)
			}
			if path == "" {
				path = filepath.Join(root, defaultManifestName)
			}

			l := loader.New(nil, nil, a.cfg.LoaderOptions(nil, logger)...)
			m, err := l.BuildManifest(ctx, os.DirFS(root))
			if err != nil {
				return err
			}
			if err := manifest.NewFileRepository().Save(ctx, m, path); err != nil {
				return err
			}

			_, err = fmt.Fprintf(a.out, "Pinned %d files in %s\n", m.FileCount(), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "manifest path (default: loader.manifest or <root>/"+defaultManifestName+")")
	return cmd
}

func (a *app) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [kind]",
		Short: "List producer schemas or print one as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg := schema.Default()
			if len(args) == 0 {
				for _, kind := range reg.List() {
					if _, err := fmt.Fprintln(a.out, kind); err != nil {
						return err
					}
				}
				return nil
			}

			raw, ok := reg.GetSchema(args[0])
			if !ok {
				return &ExitError{Code: 1, Message: fmt.Sprintf("unknown schema kind %q (have %s)", args[0], strings.Join(reg.List(), ", "))}
			}
			_, err := fmt.Fprintln(a.out, raw)
			return err
		},
	}
}
