package config

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetAICommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "set-ai",
		Usage: t.GetMessage("config_set_ai_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "enable",
				Usage: t.GetMessage("flag_ai_enable_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "disable",
				Usage: t.GetMessage("flag_ai_disable_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Aliases: []string{"k"},
				Usage:   t.GetMessage("flag_ai_api_key_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   t.GetMessage("flag_ai_model_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if key := command.String("api-key"); key != "" {
				cfg.AI.APIKey = key
			}
			if model := command.String("model"); model != "" {
				cfg.AI.Model = model
			}
			if command.Bool("enable") {
				cfg.AI.Enabled = true
			}
			if command.Bool("disable") {
				cfg.AI.Enabled = false
			}

			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("config_updated", 0, nil))
			return nil
		},
	}
}
