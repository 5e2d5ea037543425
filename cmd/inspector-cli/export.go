package main

import (
	"fmt"

	"engine-inspector/internal/services/exportverify"
	"engine-inspector/internal/services/repository"

	"github.com/spf13/cobra"
)

func newExportCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <subcommand>",
		Short: "Export checklists as PDF or JSON into the export directory",
	}
	cmd.AddCommand(newExportPDFCmd(f), newExportJSONCmd(f), newExportAllCmd(f), newExportArchiveCmd(f), newExportVerifyCmd(f))
	return cmd
}

func newExportPDFCmd(f *rootFlags) *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render one checklist to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if legacy {
				l, ok := rt.Legacy.FindByID(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
				}
				art, err := rt.PDF.ExportLegacy(ctx, l)
				if err != nil {
					return err
				}
				printWarnings(out, art.Warnings)
				printSuccess(out, "pdf written: %s (%d page(s), sha256 %s)", art.Path, art.Pages, art.SHA256)
				return nil
			}

			e, ok := rt.Checklists.FindByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
			}
			art, err := rt.PDF.ExportEntry(ctx, e)
			if err != nil {
				return err
			}
			printWarnings(out, art.Warnings)
			printSuccess(out, "pdf written: %s (%d page(s), sha256 %s)", art.Path, art.Pages, art.SHA256)
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "id refers to a reception/expedition checklist")
	return cmd
}

func newExportJSONCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "json [id]",
		Short: "Export one checklist, or all checklists when no id is given, as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if len(args) == 0 {
				file, err := rt.JSON.WriteCollection(ctx, rt.Checklists.List())
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "json written: %s (%d bytes)", file.Path, file.Size)
				return nil
			}
			e, ok := rt.Checklists.FindByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
			}
			file, err := rt.JSON.WriteRecord(ctx, e)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "json written: %s (%d bytes)", file.Path, file.Size)
			return nil
		},
	}
}

func newExportAllCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Export checklists and selection lists into one JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			file, err := rt.JSON.WriteAll(cmd.Context(), rt.AllData())
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "json written: %s (%d bytes, sha256 %s)", file.Path, file.Size, file.SHA256)
			return nil
		},
	}
}

func newExportArchiveCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Bundle all data, every checklist PDF and a hash manifest into one ZIP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.JSON.WriteArchive(cmd.Context(), rt.AllData(), rt.PDF)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWarnings(out, res.Warnings)
			printSuccess(out, "archive written: %s (%d file(s), sha256 %s)", res.Path, res.Files, res.SHA256)
			return nil
		},
	}
}

func newExportVerifyCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that exported PDFs still match their checklists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			res := exportverify.VerifyEntries(rt.PDF.Dir, rt.Checklists.List(), rt.PDF)
			for _, it := range res.Failures {
				printWarning(out, "%s (%s): %s", it.EntryID, it.Path, it.Message)
			}
			fmt.Fprintf(out, "total=%d verified=%d superseded=%d missing=%d mismatched=%d\n", res.Total, res.Verified, res.Superseded, res.Missing, res.Mismatched)
			if !res.OK {
				return fmt.Errorf("%d export(s) failed verification", len(res.Failures))
			}
			printSuccess(out, "exports verified")
			return nil
		},
	}
}
