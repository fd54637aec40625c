package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/swashbuckle/internal"
	pkgconfig "github.com/starford/swashbuckle/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func options(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return append([]internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, extra...), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Build(ctx, opts...)
}

func ask(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return internal.Ask(ctx, cmd.String("query"), cmd.String("variant"), cmd.Bool("plain"), opts...)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "swashbuckle",
		Usage:   "Markdown blog with a static site generator and an ask-the-blog chat widget",
		Version: version,
		Action:  serve,
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
				Name:   "build",
				Usage:  "Generate the static site into the output directory",
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Build, serve the site and API, and rebuild on content changes",
				Action: serve,
			},
			{
				Name:   "ask",
				Usage:  "Ask the blog a question from the terminal",
				Action: ask,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Answer this question once and exit",
					},
					&cli.StringFlag{
						Name:  "variant",
						Usage: "Answering preset (default: first configured variant)",
					},
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "Render without colours",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the blog over the Model Context Protocol on stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
