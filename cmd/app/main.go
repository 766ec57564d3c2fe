package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultlink/internal"
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/convert"
	"github.com/starford/vaultlink/internal/policy"
	pkgconfig "github.com/starford/vaultlink/pkg/config"
)

func loadConfig(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

// parseRange parses "START:END" byte offsets.
func parseRange(s string) (*buffer.Range, error) {
	if s == "" {
		return nil, nil
	}
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("range %q: want START:END", s)
	}
	a, err := strconv.Atoi(start)
	if err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	b, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}
	return &buffer.Range{Start: a, End: b}, nil
}

func convertCmd(ctx context.Context, cmd *cli.Command) error {
	dir, err := convert.ParseDirection(cmd.String("to"))
	if err != nil {
		return err
	}
	sel, err := parseRange(cmd.String("range"))
	if err != nil {
		return err
	}
	note := cmd.String("note")
	if sel != nil && note == "" {
		return fmt.Errorf("--range requires --note")
	}
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunConvert(ctx, internal.ConvertArgs{Direction: dir, Note: note, Range: sel}, opts...)
}

func stamp(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("note path is required")
	}
	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunStamp(ctx, path, opts...)
}

func settings(ctx context.Context, cmd *cli.Command) error {
	var changes []func(*policy.Policy)
	if cmd.IsSet("uid-field") {
		v := cmd.String("uid-field")
		changes = append(changes, func(p *policy.Policy) { p.StableIDField = v })
	}
	if cmd.IsSet("enforce-vault") {
		v := cmd.Bool("enforce-vault")
		changes = append(changes, func(p *policy.Policy) { p.EnforceVault = v })
	}
	if cmd.IsSet("display-text") {
		mode, err := policy.ParseDisplayTextMode(cmd.String("display-text"))
		if err != nil {
			return err
		}
		changes = append(changes, func(p *policy.Policy) { p.DisplayTextMode = mode })
	}
	if cmd.IsSet("debug") {
		v := cmd.Bool("debug")
		changes = append(changes, func(p *policy.Policy) { p.DebugMode = v })
	}
	if cmd.IsSet("scheme") {
		v := cmd.String("scheme")
		changes = append(changes, func(p *policy.Policy) { p.Scheme = v })
	}
	if cmd.IsSet("fallback-uri") {
		v := cmd.Bool("fallback-uri")
		changes = append(changes, func(p *policy.Policy) { p.FallbackURI = v })
	}
	if cmd.IsSet("prefer-stable-id") {
		v := cmd.Bool("prefer-stable-id")
		changes = append(changes, func(p *policy.Policy) { p.PreferStableID = v })
	}

	var update func(*policy.Policy)
	if len(changes) > 0 {
		update = func(p *policy.Policy) {
			for _, c := range changes {
				c(p)
			}
		}
	}

	opts, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunSettings(ctx, update, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "vaultlink",
		Usage:  "Convert between vault URIs and internal [[links]] in Markdown notes",
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
				Usage:  "Run the HTTP API and the vault watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the conversion tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:   "convert",
				Usage:  "Convert links in stdin, or in a note when --note is given",
				Action: convertCmd,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Target notation: internal or external",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "note",
						Usage: "Vault-relative note to convert in place",
					},
					&cli.StringFlag{
						Name:  "range",
						Usage: "Byte range START:END of the note to convert",
					},
				},
			},
			{
				Name:      "stamp",
				Usage:     "Give a note a stable id and print it",
				ArgsUsage: "PATH",
				Action:    stamp,
			},
			{
				Name:   "settings",
				Usage:  "Show or change the conversion settings",
				Action: settings,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid-field", Usage: "Frontmatter field holding stable ids"},
					&cli.BoolFlag{Name: "enforce-vault", Usage: "Only convert URIs naming this vault"},
					&cli.StringFlag{Name: "display-text", Usage: "always, onlyIfDifferent or never"},
					&cli.BoolFlag{Name: "debug", Usage: "Log every span left unchanged"},
					&cli.StringFlag{Name: "scheme", Usage: "URI scheme to recognise and emit"},
					&cli.BoolFlag{Name: "fallback-uri", Usage: "Emit a URI for internal links that do not resolve"},
					&cli.BoolFlag{Name: "prefer-stable-id", Usage: "Address documents by stable id when they have one"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
