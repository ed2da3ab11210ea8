package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnandSundar/go-litcal/metadata"
)

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <diocese> <nation>",
		Short: "Check that a diocesan calendar belongs to a nation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()
			s.provider()

			diocese, nation := args[0], args[1]
			ok, err := metadata.IsValidDioceseForNation(cmd.Context(), diocese, nation)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("diocese %q is not a calendar of nation %q", diocese, nation)
			}
			writef(cmd.OutOrStdout(), "%s belongs to %s\n", diocese, nation)
			return nil
		},
	}
}
