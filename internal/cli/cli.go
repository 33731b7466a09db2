// Package cli wires the cmsctl commands: configuration and logging are set up
// in the root Before hook and every command builds its collaborators from
// the loaded configuration.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-cms-forms/internal/config"
	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/client"
	"github.com/goliatone/go-cms-forms/pkg/notify"
	"github.com/goliatone/go-cms-forms/pkg/tui"
	"github.com/goliatone/go-cms-forms/pkg/uischema"
)

// Deps lets callers replace the interactive and persistent parts.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer
	Driver tui.PromptDriver
	Store  auth.Store
}

type app struct {
	deps   Deps
	cfg    *config.Config
	logger *slog.Logger
	forms  *uischema.Store
}

// Run executes cmsctl with args.
func Run(ctx context.Context, args []string, version string) error {
	return RunWith(ctx, args, version, Deps{})
}

// RunWith is Run with explicit dependencies.
func RunWith(ctx context.Context, args []string, version string, deps Deps) error {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	a := &app{deps: deps}

	cmd := &cli.Command{
		Name:      "cmsctl",
		Usage:     "Manage catalog content and staff users of the CMS",
		Version:   version,
		Writer:    deps.Stdout,
		ErrWriter: deps.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (.yaml, .yml or .toml)",
				Sources: cli.EnvVars("CMS_CONFIG"),
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files read before CMS_* variables",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.cmdLogin(),
			a.cmdLogout(),
			a.cmdStatus(),
			a.cmdContent(),
			a.cmdUser(),
			a.cmdOptions("genres", "Search genres"),
			a.cmdOptions("ratings", "Search maturity ratings"),
			a.cmdDev(),
		},
	}

	if err := cmd.Run(ctx, args); err != nil {
		logging.Default().Error("cmsctl failed", logging.ErrorAttrs(err)...)
		return err
	}
	return nil
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, path, exists, err := config.Load(cmd.String("config"), cmd.StringSlice("env-file")...)
	if err != nil {
		return ctx, goerr.Wrap(err, "load config")
	}
	level := cfg.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	logger, err := logging.Configure(a.deps.Stderr, level, cfg.Log.Format)
	if err != nil {
		return ctx, err
	}
	forms, err := uischema.Default()
	if err != nil {
		return ctx, goerr.Wrap(err, "load form definitions")
	}

	a.cfg, a.logger, a.forms = cfg, logger, forms
	logger.Debug("config loaded", "path", path, "exists", exists, "api", cfg.API.BaseURL)
	return ctx, nil
}

func (a *app) store() (auth.Store, error) {
	if a.deps.Store != nil {
		return a.deps.Store, nil
	}
	switch a.cfg.Auth.Store {
	case config.StoreFile:
		path := a.cfg.Auth.TokenPath
		if path == "" {
			var err error
			if path, err = auth.DefaultTokenPath(config.AppName); err != nil {
				return nil, err
			}
		}
		return auth.NewFileStore(path), nil
	case config.StoreMemory:
		return &auth.MemoryStore{}, nil
	default:
		return auth.NewKeychainStore(a.cfg.Auth.KeychainService), nil
	}
}

// session builds the API client and the session sharing its token.
func (a *app) session() (*auth.Session, *client.Client, error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	var session *auth.Session
	api, err := client.New(a.cfg.API.BaseURL,
		client.WithTimeout(a.cfg.Timeout()),
		client.WithLogger(a.logger),
		client.WithToken(func() string { return session.Token() }),
	)
	if err != nil {
		return nil, nil, err
	}
	session = auth.NewSession(api, store,
		auth.WithEmailDomain(a.cfg.Auth.EmailDomain),
		auth.WithLogger(a.logger),
	)
	return session, api, nil
}

// restore loads the stored session and fails when it is not usable.
func (a *app) restore(ctx context.Context) (*auth.Session, *client.Client, error) {
	session, api, err := a.session()
	if err != nil {
		return nil, nil, err
	}
	if route := session.Restore(ctx); route != auth.RouteHome {
		return nil, nil, goerr.New("no active session, run `cmsctl login` first")
	}
	return session, api, nil
}

// prompter builds the form prompter. Without an injected driver the survey
// driver needs an interactive stdin.
func (a *app) prompter() (*tui.Prompter, error) {
	driver := a.deps.Driver
	if driver == nil {
		fd := os.Stdin.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			return nil, goerr.New("interactive commands need a terminal on stdin")
		}
		driver = tui.NewSurveyDriver(a.deps.Stdout)
	}
	theme := tui.Theme{ErrorPrefix: "✗ ", Color: !color.NoColor}
	return tui.New(tui.WithPromptDriver(driver), tui.WithTheme(theme)), nil
}

func (a *app) notifier() notify.Sink {
	return notify.Multi{notify.NewConsole(a.deps.Stdout), notify.Log{Logger: a.logger}}
}
