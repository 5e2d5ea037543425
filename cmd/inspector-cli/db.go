package main

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	sqliteadapter "engine-inspector/internal/adapters/store/sqlite"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/settings"

	"github.com/spf13/cobra"
)

// knownSlots 是应用会读写的全部槽位。
var knownSlots = []string{
	repository.SlotChecklists,
	repository.SlotLegacyChecklists,
	settings.SlotRevisionTypes,
	settings.SlotEngineSerials,
	settings.SlotDarkMode,
}

func newDBCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db <subcommand>",
		Short: "Inspect and repair the stored slots",
	}
	cmd.AddCommand(newDBSlotsCmd(f), newDBRestoreCmd(f), newDBClearCmd(f))
	return cmd
}

// withStore 打开数据库（含迁移）并执行 fn。
func (f *rootFlags) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *sqliteadapter.Store) error) error {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := sqliteadapter.Open(cmd.Context(), cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cmd.Context(), sqliteadapter.NewStore(db))
}

func checkSlot(name string) error {
	if !slices.Contains(knownSlots, name) {
		return fmt.Errorf("unknown slot %q (known: %v)", name, knownSlots)
	}
	return nil
}

func newDBSlotsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List stored slots with size and sha256",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withStore(cmd, func(ctx context.Context, s *sqliteadapter.Store) error {
				slots, err := s.ListSlots(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(slots) == 0 {
					mutedColor.Fprintln(out, "(empty)")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SLOT\tBYTES\tUPDATED\tSHA256")
				for _, it := range slots {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
						it.Name, it.SizeBytes, time.Unix(it.UpdatedAt, 0).Format("2006-01-02 15:04:05"), it.SHA256)
				}
				return tw.Flush()
			})
		},
	}
}

func newDBRestoreCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <slot>",
		Short: "Swap a slot back to its previous version",
		Long: "Swap a slot back to the version it held before the last write.\n" +
			"Running restore twice returns to the current version.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := checkSlot(name); err != nil {
				return err
			}
			return f.withStore(cmd, func(ctx context.Context, s *sqliteadapter.Store) error {
				prev, ok, err := s.Previous(ctx, name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("slot %s has no previous version", name)
				}
				if err := s.Put(ctx, name, prev); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "restored %s (%d bytes)", name, len(prev))
				return nil
			})
		},
	}
}

func newDBClearCmd(f *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <slot>",
		Short: "Delete a slot; it reads as empty or default afterwards (db restore undoes it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := checkSlot(name); err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to clear %s without --yes", name)
			}
			return f.withStore(cmd, func(ctx context.Context, s *sqliteadapter.Store) error {
				if err := s.Delete(ctx, name); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "cleared %s", name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
