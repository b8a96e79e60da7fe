package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/pantry/internal"
	"github.com/starford/pantry/internal/filter"
	pkgconfig "github.com/starford/pantry/pkg/config"
)

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

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func runFilter(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	page := cmd.String("page")
	if page == "" && cmd.Args().Len() > 0 {
		page = cmd.Args().First()
	}
	if page == "" {
		return fmt.Errorf("a page file is required")
	}
	req := internal.FilterRequest{
		Page: page,
		Inputs: filter.Inputs{
			Query: cmd.String("query"),
			Prep:  cmd.String("prep"),
			Cook:  cmd.String("cook"),
		},
		Out: cmd.String("out"),
	}
	return internal.RunFilter(ctx, os.Stdout, req, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "pantry",
		Usage:  "Recipe listing filter engine with text search, time limits and match highlighting",
		Action: serve,
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
				Usage:  "Serve the HTTP API and event stream (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "filter",
				Usage:     "Run one filter pass over a listing page file",
				ArgsUsage: "[page.html]",
				Action:    runFilter,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Aliases: []string{"p"}, Usage: "Listing page file"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text"},
					&cli.StringFlag{Name: "prep", Usage: "Maximum preparation time (e.g. \"15 min\")"},
					&cli.StringFlag{Name: "cook", Usage: "Maximum cooking time (e.g. \"30 min\")"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Export to a .csv or .xlsx file instead of printing JSON"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
