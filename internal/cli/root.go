package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const ServiceName = "bikerent"

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           ServiceName,
		Short:         "Bike rental reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewServe(),
		NewMigrate(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
