package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

func newGetCmd(configPath *string) *cobra.Command {
	var headers []string
	var locale string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a path below the API base URL and print the body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header := make(http.Header)
			for _, h := range headers {
				name, value, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("header %q: expected Name: value", h)
				}
				header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
			}
			if locale != "" {
				header.Set("Accept-Language", locale)
			}

			s, err := openSession(*configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			url := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + strings.TrimLeft(args[0], "/")
			resp, err := s.client.Get(cmd.Context(), url, header)
			if err != nil {
				return err
			}

			writef(cmd.OutOrStdout(), "%s\n", resp.Text())
			if !resp.IsSuccess() {
				return fmt.Errorf("GET %s: status %d", url, resp.StatusCode())
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra request header, Name: value")
	cmd.Flags().StringVar(&locale, "locale", "", "Accept-Language for the request")
	return cmd
}
