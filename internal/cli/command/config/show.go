package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			fmt.Println(t.GetMessage("current_config", 0, nil))
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━\n")

			ui.PrintKeyValue("language", cfg.Language)
			ui.PrintKeyValue("output_format", cfg.OutputFormat)

			if cfg.ActiveVCSProvider != "" {
				ui.PrintKeyValue("active_vcs_provider", cfg.ActiveVCSProvider)
			}

			if len(cfg.VCSConfigs) == 0 {
				fmt.Println(t.GetMessage("no_providers_configured", 0, nil))
			} else {
				names := make([]string, 0, len(cfg.VCSConfigs))
				for name := range cfg.VCSConfigs {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					vcs := cfg.VCSConfigs[name]
					status := t.GetMessage("credentials_set", 0, nil)
					if vcs.Token == "" && (vcs.Username == "" || vcs.Password == "") {
						status = t.GetMessage("credentials_missing", 0, nil)
					}
					ui.PrintKeyValue(name, status)
				}
			}

			if cfg.AI.Enabled {
				fmt.Println(t.GetMessage("ai_enabled_label", 0, map[string]interface{}{
					"Provider": cfg.AI.Provider,
					"Model":    cfg.AI.Model,
				}))
			} else {
				fmt.Println(t.GetMessage("ai_disabled_label", 0, nil))
			}

			return nil
		},
	}
}
