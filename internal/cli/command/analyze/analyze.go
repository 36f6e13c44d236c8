package analyze

import (
	"context"

	"github.com/Tomas-vilte/MateReview/internal/cli/completion_helper"
	cfg "github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/report"
	"github.com/Tomas-vilte/MateReview/internal/ui"
	"github.com/urfave/cli/v3"
)

type AnalyzeCommand struct {
	provider ServiceProvider
}

func NewAnalyzeCommand(provider ServiceProvider) *AnalyzeCommand {
	return &AnalyzeCommand{provider: provider}
}

func (c *AnalyzeCommand) CreateCommand(t *i18n.Translations, appCfg *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   t.GetMessage("analyze_command_usage", 0, nil),
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
			&cli.IntFlag{
				Name:     "pr",
				Aliases:  []string{"n"},
				Usage:    t.GetMessage("flag_pr_usage", 0, nil),
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "post-comments",
				Aliases: []string{"c"},
				Usage:   t.GetMessage("flag_post_comments_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   t.GetMessage("flag_output_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   t.GetMessage("flag_format_usage", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			service, err := c.provider(ctx)
			if err != nil {
				return err
			}

			providerName := cmd.String("provider")
			repo := cmd.String("repo")
			number := int(cmd.Int("pr"))

			spinner := ui.NewSmartSpinner(t.GetMessage("analyzing_pr", 0, map[string]interface{}{
				"Number": number,
				"Repo":   repo,
			}))
			spinner.Start()

			analysis, err := service.AnalyzePR(ctx, providerName, repo, number)
			if err != nil {
				spinner.Error(t.GetMessage("error_analysis_failed", 0, nil))
				return err
			}
			spinner.Success(t.GetMessage("analysis_complete", 0, nil))

			printAnalysis(t, analysis)

			if output := cmd.String("output"); output != "" {
				format := cmd.String("format")
				if format == "" {
					format = appCfg.OutputFormat
				}
				if err := report.Save(analysis.Report, output, format); err != nil {
					return err
				}
				ui.PrintInfo(t.GetMessage("report_saved", 0, map[string]interface{}{"Path": output}))
			}

			if cmd.Bool("post-comments") {
				ui.PrintInfo(t.GetMessage("posting_comments", 0, nil))
				url, err := service.PostReview(ctx, providerName, repo, number, analysis)
				if err != nil {
					return err
				}
				ui.PrintSuccess(cmd.Writer, t.GetMessage("comments_posted", 0, map[string]interface{}{"URL": url}))
			}

			return nil
		},
	}
}
