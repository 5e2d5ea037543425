package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"engine-inspector/internal/app"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/wizard"

	"github.com/spf13/cobra"
)

func newChecklistCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checklist <subcommand>",
		Aliases: []string{"cl"},
		Short:   "Create, list, edit and delete inspection checklists",
	}
	cmd.AddCommand(
		newChecklistListCmd(f),
		newChecklistShowCmd(f),
		newChecklistFormCmd(f, false),
		newChecklistFormCmd(f, true),
		newChecklistDeleteCmd(f),
		newLegacyNewCmd(f),
		newLegacyListCmd(f),
		newLegacyMigrateCmd(f),
	)
	return cmd
}

func newChecklistListCmd(f *rootFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checklists, optionally filtered by serial number or revision type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			printWarnings(out, rt.Checklists.Warnings())
			entries := rt.Checklists.Search(query)
			if len(entries) == 0 {
				mutedColor.Fprintln(out, "no checklists")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tSERIAL\tHOURS\tWORST")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					e.ID, model.FormatDateFR(e.Date), e.Type, e.SerialNumber, e.HourCounter,
					badge(e.Components.Worst().Appearance()))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search on serial number and revision type")
	return cmd
}

func newChecklistShowCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			e, ok := rt.Checklists.FindByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
			}
			printEntry(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func printEntry(w io.Writer, e model.ChecklistEntry) {
	printHeader(w, fmt.Sprintf("Inspection %s", e.ID))
	fmt.Fprintf(w, "Date:               %s\n", model.FormatDateFR(e.Date))
	fmt.Fprintf(w, "Type de révision:   %s\n", e.Type)
	fmt.Fprintf(w, "Numéro de série:    %s\n", e.SerialNumber)
	fmt.Fprintf(w, "Compteur horaire:   %d heures\n", e.HourCounter)
	if e.ProvenanceEngine != "" {
		fmt.Fprintf(w, "Moteur de provenance: %s\n", e.ProvenanceEngine)
	}
	fmt.Fprintln(w)
	for _, r := range e.Components.Rows() {
		fmt.Fprintf(w, "  %-26s %s\n", r.Key.Label(), badge(r.Status.Appearance()))
	}
	if obs := strings.TrimSpace(e.Observations); obs != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations:")
		fmt.Fprintln(w, "  "+strings.ReplaceAll(obs, "\n", "\n  "))
	}
	if len(e.Photos) > 0 {
		mutedColor.Fprintf(w, "%d photo(s)\n", len(e.Photos))
	}
}

// formFlags 是 new/edit 共用的表单参数。只有显式给出的参数会写入草稿。
type formFlags struct {
	date, typ, serial, provenance, obs string
	hours                              int
	components                         map[string]string
	photos                             []string
}

func (ff *formFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&ff.date, "date", "", "inspection date (YYYY-MM-DD, default today)")
	fl.StringVar(&ff.typ, "type", "", "revision type")
	fl.StringVar(&ff.serial, "serial", "", "engine serial number")
	fl.IntVar(&ff.hours, "hours", 0, "hour counter (> 0)")
	fl.StringVar(&ff.provenance, "provenance", "", "provenance engine (transfers only)")
	fl.StringToStringVar(&ff.components, "component", nil, "component status, e.g. --component exhaust=moyen")
	fl.StringVar(&ff.obs, "obs", "", "observations")
	fl.StringArrayVar(&ff.photos, "photo", nil, "photo reference (repeatable)")
}

func (ff *formFlags) draft(cmd *cobra.Command) wizard.Draft {
	fl := cmd.Flags()
	d := wizard.Draft{
		Date:         ff.date,
		Type:         ff.typ,
		SerialNumber: ff.serial,
		Components:   ff.components,
	}
	if fl.Changed("hours") {
		h := ff.hours
		d.HourCounter = &h
	}
	if fl.Changed("provenance") {
		p := ff.provenance
		d.ProvenanceEngine = &p
	}
	if fl.Changed("obs") {
		o := ff.obs
		d.Observations = &o
	}
	if fl.Changed("photo") {
		d.Photos = ff.photos
	}
	return d
}

func newChecklistFormCmd(f *rootFlags, edit bool) *cobra.Command {
	ff := &formFlags{}
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Fill in and save a new checklist (a PDF is exported afterwards)",
		Args:  cobra.NoArgs,
	}
	if edit {
		cmd.Use = "edit <id>"
		cmd.Short = "Edit an existing checklist; unspecified fields keep their value"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rt, err := f.open(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		d := ff.draft(cmd)
		if d.Type != "" && !rt.Settings.KnownRevisionType(d.Type) {
			printWarning(out, "revision type %q is not in the configured list", d.Type)
		}
		deps := rt.WizardDeps(cliNotifier{out: out})

		var res *wizard.FinishResult
		if edit {
			existing, ok := rt.Checklists.FindByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
			}
			res, err = wizard.SubmitEdit(cmd.Context(), deps, existing, d)
		} else {
			res, err = wizard.Submit(cmd.Context(), deps, d)
		}
		if err != nil {
			return formError(out, err)
		}
		printWarnings(out, res.Warnings)
		return nil
	}
	ff.bind(cmd)
	return cmd
}

// formError 逐字段打印校验错误，返回汇总错误。
func formError(w io.Writer, err error) error {
	ve, ok := wizard.IsValidation(err)
	if !ok {
		return err
	}
	for field, msg := range ve.Fields {
		printWarning(w, "%s: %s", field, msg)
	}
	return fmt.Errorf("checklist not saved: %d invalid field(s)", len(ve.Fields))
}

func newChecklistDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			removed, err := rt.Checklists.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				printWarning(cmd.OutOrStdout(), "no checklist %s, nothing deleted", args[0])
				return nil
			}
			rt.Metrics.ChecklistsDeleted.Inc()
			printSuccess(cmd.OutOrStdout(), "checklist %s deleted", args[0])
			return nil
		},
	}
}

func newLegacyNewCmd(f *rootFlags) *cobra.Command {
	var (
		d     wizard.LegacyDraft
		items map[string]string
	)
	cmd := &cobra.Command{
		Use:   "legacy-new",
		Short: "Save a reception/expedition checklist (sensors, wiring, starting circuit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			d.Items = items
			res, err := wizard.SubmitLegacy(cmd.Context(), rt.LegacyDeps(cliNotifier{out: out}), d)
			if err != nil {
				return formError(out, err)
			}
			printWarnings(out, res.Warnings)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&d.Date, "date", "", "date (YYYY-MM-DD, default today)")
	fl.StringVar(&d.ChecklistType, "type", "", "reception|expedition")
	fl.StringVar(&d.Responsables.Electrical, "electrical", "", "electrical manager")
	fl.StringVar(&d.Responsables.Workshop, "workshop", "", "workshop manager")
	fl.StringVar(&d.Responsables.Inspector, "inspector", "", "inspector")
	fl.StringVar(&d.EngineInfo.SerialNumber, "serial", "", "engine serial number")
	fl.StringVar(&d.EngineInfo.EcmNumber, "ecm", "", "ECM number")
	fl.IntVar(&d.EngineInfo.HMCurrent, "hm", 0, "current hour meter (> 0)")
	fl.StringToStringVar(&items, "item", nil, "item status by label, e.g. --item Démarreur=manquant")
	fl.StringVar(&d.Observations, "obs", "", "observations")
	return cmd
}

func newLegacyMigrateCmd(f *rootFlags) *cobra.Command {
	var (
		all        string
		components map[string]string
		revType    string
	)
	cmd := &cobra.Command{
		Use:   "legacy-migrate <id>",
		Short: "Convert a reception/expedition checklist into a component checklist",
		Long: "Convert a reception/expedition checklist into a component checklist with the same id.\n" +
			"The two status vocabularies are not mapped: give every component status with --all\n" +
			"and/or --component. The original sensor lines are kept in the observations.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			l, ok := rt.Legacy.FindByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", repository.ErrNotFound, args[0])
			}
			comps := map[string]string{}
			if all != "" {
				for _, def := range model.ComponentDefs() {
					comps[string(def.Key)] = all
				}
			}
			for k, v := range components {
				comps[k] = v
			}

			out := cmd.OutOrStdout()
			res, err := wizard.SubmitMigration(cmd.Context(), rt.WizardDeps(cliNotifier{out: out}), l, wizard.Draft{
				Type:       revType,
				Components: comps,
			})
			if err != nil {
				return formError(out, err)
			}
			printWarnings(out, res.Warnings)
			printSuccess(out, "migrated %s (schema v%d -> v%d)", l.ID, model.SchemaLegacy, model.SchemaCurrent)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&all, "all", "", "status for every component (bon|moyen|mauvais)")
	fl.StringToStringVar(&components, "component", nil, "component status, e.g. --component exhaust=moyen")
	fl.StringVar(&revType, "type", "", "revision type (default: the reception/expedition label)")
	return cmd
}

func newLegacyListCmd(f *rootFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "legacy-list",
		Short: "List reception/expedition checklists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printLegacyList(cmd.OutOrStdout(), rt, query)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search on serial number and type")
	return cmd
}

func printLegacyList(w io.Writer, rt *app.Runtime, query string) error {
	items := rt.Legacy.Search(query)
	if len(items) == 0 {
		mutedColor.Fprintln(w, "no checklists")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tSERIAL\tHM")
	for _, l := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			l.ID, model.FormatDateFR(l.Date), l.ChecklistType.Label(), l.EngineInfo.SerialNumber, l.EngineInfo.HMCurrent)
	}
	return tw.Flush()
}
