package cli

import (
	"encoding/json"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCalendarsCmd(configPath *string) *cobra.Command {
	var asJSON bool
	var nation string

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List national and diocesan calendars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			index, err := s.provider().Metadata(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(index)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			if nation == "" {
				writef(w, "NATION\tREGION\tLOCALES\n")
				for _, c := range index.NationalCalendars {
					writef(w, "%s\t%s\t%s\n", c.CalendarID, c.WiderRegion, strings.Join(c.Locales, ","))
				}
				writef(w, "\n")
			}
			writef(w, "DIOCESE\tNATION\tNAME\n")
			for _, c := range index.DiocesanCalendars {
				if nation != "" && c.Nation != nation {
					continue
				}
				writef(w, "%s\t%s\t%s\n", c.CalendarID, c.Nation, c.Diocese)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw index as JSON")
	cmd.Flags().StringVar(&nation, "nation", "", "only list dioceses of this nation")
	return cmd
}
