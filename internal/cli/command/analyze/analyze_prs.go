package analyze

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/cli/completion_helper"
	cfg "github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/report"
	"github.com/Tomas-vilte/MateReview/internal/ui"
	"github.com/urfave/cli/v3"
)

type AnalyzePRsCommand struct {
	provider ServiceProvider
}

func NewAnalyzePRsCommand(provider ServiceProvider) *AnalyzePRsCommand {
	return &AnalyzePRsCommand{provider: provider}
}

func (c *AnalyzePRsCommand) CreateCommand(t *i18n.Translations, appCfg *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:    "analyze-prs",
		Aliases: []string{"batch"},
		Usage:   t.GetMessage("analyze_prs_command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   t.GetMessage("flag_provider_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:     "repo",
				Aliases:  []string{"r"},
				Usage:    t.GetMessage("flag_repo_usage", 0, nil),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "state",
				Aliases: []string{"s"},
				Usage:   t.GetMessage("flag_state_usage", 0, nil),
				Value:   "open",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   t.GetMessage("flag_limit_usage", 0, nil),
				Value:   10,
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   t.GetMessage("flag_output_dir_usage", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			service, err := c.provider(ctx)
			if err != nil {
				return err
			}

			repo := cmd.String("repo")

			spinner := ui.NewSmartSpinner(t.GetMessage("analyzing_prs", 0, map[string]interface{}{
				"Repo": repo,
			}))
			spinner.Start()

			results, err := service.AnalyzePRs(ctx, cmd.String("provider"), repo, cmd.String("state"), int(cmd.Int("limit")))
			if err != nil {
				spinner.Error(t.GetMessage("error_analysis_failed", 0, nil))
				return err
			}
			spinner.Success(t.GetMessage("analysis_complete", 0, nil))

			printBatchSummary(t, results)

			if dir := cmd.String("output-dir"); dir != "" {
				for _, analysis := range results {
					name := fmt.Sprintf("pr-%s.%s", analysis.PR.ID, reportExtension(appCfg.OutputFormat))
					path := filepath.Join(dir, name)
					if err := report.Save(analysis.Report, path, appCfg.OutputFormat); err != nil {
						return err
					}
					ui.PrintInfo(t.GetMessage("report_saved", 0, map[string]interface{}{"Path": path}))
				}
			}

			return nil
		},
	}
}

func reportExtension(format string) string {
	if strings.EqualFold(format, "markdown") {
		return "md"
	}
	return "json"
}
