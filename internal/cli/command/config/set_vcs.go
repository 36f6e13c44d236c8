package config

import (
	"context"
	"fmt"

	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetVCSCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "set-vcs",
		Usage: t.GetMessage("config_set_vcs_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    t.GetMessage("flag_provider_usage", 0, nil),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   t.GetMessage("flag_token_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   t.GetMessage("flag_username_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   t.GetMessage("flag_password_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: t.GetMessage("flag_base_url_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "active",
				Usage: t.GetMessage("flag_active_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			provider := command.String("provider")

			if cfg.VCSConfigs == nil {
				cfg.VCSConfigs = make(map[string]config.VCSConfig)
			}

			vcsConfig := cfg.VCSConfigs[provider]

			if token := command.String("token"); token != "" {
				vcsConfig.Token = token
			}
			if username := command.String("username"); username != "" {
				vcsConfig.Username = username
			}
			if password := command.String("password"); password != "" {
				vcsConfig.Password = password
			}
			if baseURL := command.String("base-url"); baseURL != "" {
				vcsConfig.BaseURL = baseURL
			}

			if err := config.ValidateVCS(provider, &vcsConfig); err != nil {
				return err
			}

			cfg.VCSConfigs[provider] = vcsConfig

			// The first configured provider becomes the active one.
			if command.Bool("active") || cfg.ActiveVCSProvider == "" {
				cfg.ActiveVCSProvider = provider
			}

			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			fmt.Println(t.GetMessage("config_vcs_updated", 0, map[string]interface{}{
				"Provider": provider,
			}))
			return nil
		},
	}
}
