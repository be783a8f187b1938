package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	configCmd := &cobra.Command{Use: "config", Short: "Show or change settings"}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			secret := ""
			if cfg.Auth.JWTSecret != "" {
				secret = "(set)"
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "file: %s\n", flags.configPath)
			for _, kv := range [][2]string{
				{"api.base_url", cfg.API.BaseURL},
				{"api.timeout_sec", fmt.Sprint(cfg.API.TimeoutSec)},
				{"chat.url", cfg.ChatURL()},
				{"auth.jwt_secret", secret},
				{"display.theme", cfg.Display.Theme},
				{"legal.terms_url", cfg.Legal.TermsURL},
				{"legal.privacy_url", cfg.Legal.PrivacyURL},
			} {
				_, _ = fmt.Fprintf(out, "%s: %s\n", kv[0], kv[1])
			}
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (" + strings.Join(model.ConfigKeys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.SetConfigValue(flags.configPath, args[0], args[1]); err != nil {
				return apperr.Invalid(args[0], err.Error())
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	})

	return configCmd
}
