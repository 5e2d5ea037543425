package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSettingsCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings <subcommand>",
		Short: "Manage selection lists and the display theme",
	}
	cmd.AddCommand(
		newListCmd(f, "types", "revision types", listOps{
			get:    func(s settingsView) []string { return s.RevisionTypes() },
			add:    func(ctx context.Context, s settingsView, v string) (bool, error) { return s.AddRevisionType(ctx, v) },
			remove: func(ctx context.Context, s settingsView, i int) (bool, error) { return s.RemoveRevisionType(ctx, i) },
		}),
		newListCmd(f, "serials", "engine serial numbers", listOps{
			get:    func(s settingsView) []string { return s.EngineSerials() },
			add:    func(ctx context.Context, s settingsView, v string) (bool, error) { return s.AddEngineSerial(ctx, v) },
			remove: func(ctx context.Context, s settingsView, i int) (bool, error) { return s.RemoveEngineSerial(ctx, i) },
		}),
		newThemeCmd(f),
	)
	return cmd
}

// settingsView 是列表子命令用到的 settings.Settings 方法集。
type settingsView interface {
	RevisionTypes() []string
	EngineSerials() []string
	AddRevisionType(ctx context.Context, v string) (bool, error)
	AddEngineSerial(ctx context.Context, v string) (bool, error)
	RemoveRevisionType(ctx context.Context, index int) (bool, error)
	RemoveEngineSerial(ctx context.Context, index int) (bool, error)
}

type listOps struct {
	get    func(settingsView) []string
	add    func(context.Context, settingsView, string) (bool, error)
	remove func(context.Context, settingsView, int) (bool, error)
}

func newListCmd(f *rootFlags, use, what string, ops listOps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <list|add|remove>",
		Short: "Manage " + what,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List " + what,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer rt.Close()

				out := cmd.OutOrStdout()
				printWarnings(out, rt.Settings.Warnings())
				values := ops.get(rt.Settings)
				if len(values) == 0 {
					mutedColor.Fprintln(out, "(empty)")
				}
				for i, v := range values {
					fmt.Fprintf(out, "%3d  %s\n", i, v)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <value>",
			Short: "Append a value (blank and duplicate values are ignored)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer rt.Close()

				added, err := ops.add(cmd.Context(), rt.Settings, args[0])
				if err != nil {
					return err
				}
				if !added {
					printWarning(cmd.OutOrStdout(), "%q not added: blank or already present", strings.TrimSpace(args[0]))
					return nil
				}
				printSuccess(cmd.OutOrStdout(), "added %q", strings.TrimSpace(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <index>",
			Short: "Remove the value at index (see list)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				idx, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index: %s", args[0])
				}
				rt, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer rt.Close()

				removed, err := ops.remove(cmd.Context(), rt.Settings, idx)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("index out of range: %d", idx)
				}
				printSuccess(cmd.OutOrStdout(), "removed entry %d", idx)
				return nil
			},
		},
	)
	return cmd
}

func newThemeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := f.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				var dark bool
				switch strings.ToLower(args[0]) {
				case "dark":
					dark = true
				case "light":
				default:
					return fmt.Errorf("invalid theme: %s (want light|dark)", args[0])
				}
				if err := rt.Settings.SetDarkMode(cmd.Context(), dark); err != nil {
					return err
				}
			}
			theme := "light"
			if rt.Settings.DarkMode() {
				theme = "dark"
			}
			fmt.Fprintf(out, "theme: %s\n", theme)
			return nil
		},
	}
}
