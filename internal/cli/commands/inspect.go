package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/attributes/internal/cli/ui"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	var (
		row    []string
		assign []string
	)

	cmd := &cobra.Command{
		Use:   "inspect <schema.yml or resource>",
		Short: "Show the attributes of a resource and where their values came from",
		Long: `Build an attribute set for a resource schema and print each attribute's
type, source, current value, original value, and change state.

--row values are loaded as if read from the database; --set values are
assigned as user input afterwards, in order.`,
		Example: `  attrs inspect schema/post.yml
  attrs inspect Post --row id=1 --row title=Hello --set title=World`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			set, err := e.buildSet(args[0], row, assign)
			if err != nil {
				e.explain(cmd.ErrOrStderr(), set, err)
				return err
			}

			ui.AttributeTable(cmd.OutOrStdout(), set, noColor).Render()
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&row, "row", nil, "Database value as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&assign, "set", nil, "User assignment as name=value (repeatable)")

	return cmd
}
