package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/cli/ui"
	"github.com/conduit-lang/attributes/internal/orm/codec"
	"github.com/conduit-lang/attributes/internal/orm/snapshot"
)

// NewSnapshotCommand creates the snapshot command group
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore attribute sets",
		Long: `Persist attribute sets, pending changes included, to the store named by
snapshot.url in attributes.yml (or ATTRIBUTES_SNAPSHOT_URL).

Supported stores: sqlite://path, postgres://..., redis://...`,
	}

	cmd.AddCommand(newSnapshotSaveCommand())
	cmd.AddCommand(newSnapshotLoadCommand())
	cmd.AddCommand(newSnapshotDeleteCommand())

	return cmd
}

func newSnapshotSaveCommand() *cobra.Command {
	var (
		row    []string
		assign []string
	)

	cmd := &cobra.Command{
		Use:     "save <key> <schema.yml>",
		Short:   "Build an attribute set and save it under key",
		Example: `  attrs snapshot save post:1 schema/post.yml --row id=1 --row title=Hello --set title=World`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			set, err := e.buildSet(args[1], row, assign)
			if err != nil {
				e.explain(cmd.ErrOrStderr(), set, err)
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(ctx, args[0], set); err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess(fmt.Sprintf("Saved %d attributes as %s", set.Len(), args[0]), noColor))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&row, "row", nil, "Database value as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&assign, "set", nil, "User assignment as name=value (repeatable)")

	return cmd
}

func newSnapshotLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <key>",
		Short: "Restore the attribute set saved under key and show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			set, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}

			ui.Header(cmd.OutOrStdout(), args[0], noColor)
			ui.AttributeTable(cmd.OutOrStdout(), set, noColor).Render()
			return nil
		},
	}
}

func newSnapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete the snapshot saved under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatSuccess("Deleted "+args[0], noColor))
			return nil
		},
	}
}

// openStore connects to the configured snapshot store
func (e *env) openStore(ctx context.Context) (snapshot.Store, error) {
	format, err := codec.ParseFormat(e.config.Snapshot.Format)
	if err != nil {
		return nil, err
	}

	cfg := snapshot.Config{
		URL:      e.config.Snapshot.URL,
		Table:    e.config.Snapshot.Table,
		Prefix:   e.config.Snapshot.Prefix,
		TTL:      e.config.Snapshot.TTL,
		Format:   format,
		Resolver: e.registry,
		Logger:   e.logger.Named("snapshot"),
	}

	e.logger.Debug("opening snapshot store", zap.String("url", cfg.URL))
	return snapshot.Open(ctx, cfg)
}
