package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/clm/internal"
	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/notebook"
	"github.com/starford/clm/internal/storage"
	"github.com/starford/clm/internal/titles"
	pkgconfig "github.com/starford/clm/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		cfg.Output.Path = out
	}
	if cmd.Bool("prune") {
		cfg.Output.Prune = true
	}
	report, err := internal.Build(ctx,
		internal.WithConfig(cfg),
		internal.WithSpecFile(cmd.String("spec")),
		internal.WithLogOutput(os.Stderr))
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	fmt.Printf("documents: %d, written: %d, skipped: %d, removed: %d, diagnostics: %d\n",
		report.Documents, len(report.Written), len(report.Skipped), len(report.Removed), len(report.Diagnostics))
	return nil
}

func classify(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("classify: expected one path argument")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := storage.NewFS(cfg.Course.Path)
	if err != nil {
		return err
	}
	rel := cmd.Args().First()
	d, err := course.Classify(store, cfg.Course.Rules, rel)
	if err != nil {
		return fmt.Errorf("classify %s: %w", rel, err)
	}
	return printJSON(map[string]any{"path": rel, "label": d.Label, "descend": d.Descend})
}

func findTitles(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("titles: expected one file argument")
	}
	file := cmd.Args().First()
	if !notebook.Supported(strings.TrimPrefix(filepath.Ext(file), ".")) {
		return fmt.Errorf("titles: %s is not a notebook file", file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return printJSON(titles.ForFile(file, string(data)))
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cmd := &cli.Command{
		Name:    "clm",
		Usage:   "Course material tooling: tag-driven notebook variants, directory classification and a course catalog",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index the course and serve the REST API with live updates",
				Action: serve,
			},
			{
				Name:  "build",
				Usage: "Write every language, audience and form variant of the course",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "spec",
						Usage: "Course spec CSV restricting and numbering the notebooks",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (overrides output.path)",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete outputs of earlier builds that this build does not produce",
					},
				},
				Action: build,
			},
			{
				Name:      "classify",
				Usage:     "Print the label of a course path",
				ArgsUsage: "<path>",
				Action:    classify,
			},
			{
				Name:      "titles",
				Usage:     "Print the German and English titles of a notebook file",
				ArgsUsage: "<file>",
				Action:    findTitles,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
