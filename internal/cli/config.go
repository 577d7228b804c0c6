package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

func (a *App) newConfigCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Load and validate the configuration, then print it after environment overrides.

Secrets are redacted unless --show-secrets is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			if !showSecrets {
				redact(&cfg.JWT.Secret)
				redact(&cfg.Sessions.Password)
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			_, err = a.stdout.Write(out)

			return err
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secrets in clear")

	return cmd
}

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
