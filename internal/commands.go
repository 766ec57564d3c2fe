package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultlink/internal/apperr"
	"github.com/starford/vaultlink/internal/buffer"
	"github.com/starford/vaultlink/internal/convert"
	"github.com/starford/vaultlink/internal/mcpserver"
	"github.com/starford/vaultlink/internal/policy"
)

// ConvertArgs selects what RunConvert converts. With Note empty the text is
// read from stdin and the result written to stdout.
type ConvertArgs struct {
	Direction convert.Direction
	Note      string
	Range     *buffer.Range
}

// oneShot builds the shared runtime for a command that logs to stderr.
func oneShot(opts []Option) (*application, *runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, nil, err
	}
	rt, err := bootstrap(app.config, newLogger(app.config, app.stderr))
	if err != nil {
		return nil, nil, err
	}
	return app, rt, nil
}

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, rt, err := oneShot(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Info("MCP server starting", slog.String("vault_path", app.config.Vault.Path))
	return mcpserver.New(rt.store, rt.svc).ServeStdio()
}

// RunConvert runs a single conversion pass. The pass's notice is logged;
// having nothing to convert is not an error.
func RunConvert(ctx context.Context, args ConvertArgs, opts ...Option) error {
	app, rt, err := oneShot(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	var res convert.Result
	if args.Note == "" {
		in, err := io.ReadAll(app.stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		res, err = rt.svc.ConvertText(ctx, string(in), args.Direction)
		if err != nil && !errors.Is(err, apperr.ErrNoConvertibleSpans) {
			return err
		}
		if _, err := io.WriteString(app.stdout, res.Text); err != nil {
			return err
		}
	} else {
		nr, err := rt.svc.ConvertNote(ctx, args.Note, args.Direction, args.Range, "")
		if err != nil && !errors.Is(err, apperr.ErrNoConvertibleSpans) {
			return err
		}
		if nr != nil {
			res = nr.Result
		}
	}

	msg := args.Direction.NothingMessage()
	if res.Changed() {
		msg = args.Direction.DoneMessage()
	}
	rt.logger.Info(msg,
		slog.String("direction", string(args.Direction)),
		slog.Int("converted", res.Converted),
		slog.Int("skipped", res.Skipped))
	return nil
}

// RunStamp gives the note at path a stable id and prints it.
func RunStamp(ctx context.Context, path string, opts ...Option) error {
	app, rt, err := oneShot(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	id, _, err := rt.svc.Stamp(ctx, path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.stdout, id)
	return err
}

// RunSettings applies update, when non-nil, to the persisted settings and
// prints the resulting settings as YAML.
func RunSettings(ctx context.Context, update func(*policy.Policy), opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, app.stderr)
	policies, err := loadPolicy(app.config.Settings.Path, logger)
	if err != nil {
		return err
	}

	p := policies.Snapshot()
	if update != nil {
		if p, err = policies.Update(update); err != nil {
			return err
		}
		logger.Info("settings saved", slog.String("settings_path", app.config.Settings.Path))
	}

	enc := yaml.NewEncoder(app.stdout)
	defer enc.Close()
	return enc.Encode(p)
}
