package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notecal/internal"
	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/models"
	pkgconfig "github.com/starford/notecal/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Workspace.Root = root
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	return append(opts, extra...), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func scan(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	snap, err := internal.Scan(ctx, opts...)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*index.Snapshot
			Dates *models.DateIndex `json:"dates"`
		}{snap, snap.Index})
	}
	st := snap.Stats
	fmt.Printf("generation %d: %d files, %d indexed on %d dates\n",
		snap.Generation, st.Files, st.Indexed, snap.Index.Len())
	fmt.Printf("skipped: %d without frontmatter, %d without date, %d malformed, %d unreadable\n",
		st.NoFrontmatter, st.NoDate, st.Malformed, st.ReadFailures)
	fmt.Printf("took %s\n", st.Duration.Round(time.Millisecond))
	return nil
}

func month(ctx context.Context, cmd *cli.Command) error {
	when := time.Now().UTC()
	if arg := cmd.Args().First(); arg != "" {
		t, err := time.Parse("2006-01", arg)
		if err != nil {
			return fmt.Errorf("month must be YYYY-MM: %w", err)
		}
		when = t
	}
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	grid, err := internal.Month(ctx, when.Year(), when.Month(), opts...)
	if err != nil {
		return err
	}
	fmt.Println(grid)
	return nil
}

func newNote(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	note, err := internal.CreateNote(ctx, cmd.Args().First(), opts...)
	if err != nil {
		return err
	}
	fmt.Println(note.Path)
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "notecal",
		Usage:   "Calendar index of Markdown notes by their frontmatter date",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root, overrides the config file",
				Sources: cli.EnvVars("NOTECAL_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live re-indexing",
				Action: serve,
			},
			{
				Name:  "scan",
				Usage: "Index the workspace once and print statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the snapshot as JSON"},
				},
				Action: scan,
			},
			{
				Name:      "month",
				Usage:     "Print a calendar month with note markers",
				ArgsUsage: "[YYYY-MM]",
				Action:    month,
			},
			{
				Name:      "new",
				Usage:     "Create a note for a date (default today)",
				ArgsUsage: "[YYYY-MM-DD]",
				Action:    newNote,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
