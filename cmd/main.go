package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Tomas-vilte/MateReview/internal/cli/command/analyze"
	configcmd "github.com/Tomas-vilte/MateReview/internal/cli/command/config"
	versioncmd "github.com/Tomas-vilte/MateReview/internal/cli/command/version"
	"github.com/Tomas-vilte/MateReview/internal/cli/registry"
	cfg "github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/di"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/ui"
	"github.com/Tomas-vilte/MateReview/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	os.Exit(run())
}

func run() int {
	app, container, err := initializeApp()
	if err != nil {
		ui.HandleAppError(err)
		return 1
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn(context.Background(), "error releasing provider sessions", "error", err)
		}
	}()

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.StopActiveSpinner()
		ui.HandleAppError(err)
		return 1
	}
	return 0
}

func initializeApp() (*cli.Command, *di.Container, error) {
	logger.Initialize(os.Getenv("MATEREVIEW_DEBUG") != "", false)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not resolve the user home directory: %w", err)
	}

	appCfg, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, nil, err
	}

	translations, err := i18n.NewTranslations(appCfg.Language, "")
	if err != nil {
		return nil, nil, fmt.Errorf("error loading translations: %w", err)
	}

	container, err := di.NewContainer(appCfg, translations)
	if err != nil {
		return nil, nil, err
	}

	serviceProvider := func(ctx context.Context) (analyze.Service, error) {
		return container.Agent(ctx)
	}

	registerCommand := registry.NewRegistry(appCfg, translations)

	if err := registerCommand.Register("analyze", analyze.NewAnalyzeCommand(serviceProvider)); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("analyze-prs", analyze.NewAnalyzePRsCommand(serviceProvider)); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("config", configcmd.NewConfigCommandFactory()); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("version", versioncmd.NewVersionCommand()); err != nil {
		return nil, nil, err
	}

	commands := registerCommand.CreateCommands()

	helpCommand := &cli.Command{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   translations.GetMessage("help_command_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	}
	commands = append(commands, helpCommand)

	return &cli.Command{
		Name:                  "matereview",
		Usage:                 translations.GetMessage("app_usage", 0, nil),
		Version:               version.Version,
		Description:           translations.GetMessage("app_description", 0, nil),
		Commands:              commands,
		EnableShellCompletion: true,
	}, container, nil
}
