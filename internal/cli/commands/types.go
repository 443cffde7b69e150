package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/attributes/internal/cli/ui"
	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/types"
)

// NewTypesCommand creates the types command
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types [type]",
		Short: "List attribute types, or resolve one by name",
		Example: `  attrs types
  attrs types "decimal(10,2)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := types.NewRegistry()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, name := range registry.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			typ, err := registry.Resolve(args[0])
			if err != nil {
				if errors.Is(err, types.ErrUnknownType) {
					fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownTypeError(args[0], registry.Names(), noColor))
				}
				return err
			}

			kv := ui.NewKeyValueTable(out, noColor)
			kv.AddRow("input", args[0])
			if named, ok := typ.(attribute.Named); ok {
				kv.AddRow("type", named.TypeName())
			}
			kv.AddRow("go type", fmt.Sprintf("%T", typ))
			kv.Render()
			return nil
		},
	}
}
