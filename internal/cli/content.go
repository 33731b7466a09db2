package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-cms-forms/pkg/content"
	"github.com/goliatone/go-cms-forms/pkg/form"
	"github.com/goliatone/go-cms-forms/pkg/selector"
	"github.com/goliatone/go-cms-forms/pkg/tui"
	"github.com/goliatone/go-cms-forms/pkg/uischema"
	"github.com/goliatone/go-cms-forms/pkg/users"
)

func (a *app) cmdContent() *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Create or edit catalog content",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a content entry",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stepper", Usage: "fill the form in two steps"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Bool("stepper") {
						return a.runWizard(ctx)
					}
					return a.runContent(ctx, nil)
				},
			},
			{
				Name:      "edit",
				Usage:     "Edit the content entry with the given id",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
					if err != nil || id <= 0 {
						return goerr.New("content edit requires a numeric id", goerr.V("arg", cmd.Args().First()))
					}
					return a.runContent(ctx, &id)
				},
			},
		},
	}
}

func (a *app) contentOptions() []content.Option {
	return []content.Option{
		content.WithNotifier(a.notifier()),
		content.WithLogger(a.logger),
		content.WithSelectorOptions(
			selector.WithDelay(a.cfg.Delay()),
			selector.WithTimeout(a.cfg.Timeout()),
		),
	}
}

func (a *app) runContent(ctx context.Context, id *int64) error {
	_, api, err := a.restore(ctx)
	if err != nil {
		return err
	}
	opts := a.contentOptions()
	if id != nil {
		existing, err := api.FetchContent(ctx, *id)
		if err != nil {
			return goerr.Wrap(err, "fetch content", goerr.V("id", *id))
		}
		opts = append(opts, content.WithContent(existing))
	}

	f := content.NewForm(api, opts...)
	defer f.Close()
	if a.cfg.Selector.Preload {
		f.Genres.Preload()
		f.Ratings.Preload()
	}

	p, err := a.prompter()
	if err != nil {
		return err
	}
	out, err := p.Run(ctx, tui.ContentTarget(f, a.forms.MustForm(uischema.FormContent)))
	return a.report(out, err)
}

func (a *app) runWizard(ctx context.Context) error {
	_, api, err := a.restore(ctx)
	if err != nil {
		return err
	}
	w, err := content.NewStepper(api, a.contentOptions()...)
	if err != nil {
		return err
	}
	defer w.Close()

	p, err := a.prompter()
	if err != nil {
		return err
	}
	out, err := p.RunWizard(ctx, w, a.forms.MustForm(uischema.FormContent))
	return a.report(out, err)
}

func (a *app) cmdUser() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage staff users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a staff user",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, api, err := a.restore(ctx)
					if err != nil {
						return err
					}
					p, err := a.prompter()
					if err != nil {
						return err
					}
					f := users.NewForm(api, a.notifier(), a.logger)
					out, err := p.Run(ctx, tui.UserTarget(f, a.forms.MustForm(uischema.FormUsers)))
					return a.report(out, err)
				},
			},
		},
	}
}

func (a *app) report(out form.Outcome, err error) error {
	if err != nil {
		return err
	}
	if !out.OK() {
		return goerr.New("submit failed", goerr.V("status", out.Status.String()), goerr.V("message", out.Message))
	}
	a.logger.Info("submitted", "result", fmt.Sprintf("%+v", out.Result))
	return nil
}

func (a *app) cmdOptions(name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "[query]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, api, err := a.restore(ctx)
			if err != nil {
				return err
			}
			fetch := api.FetchGenres
			if name == "ratings" {
				fetch = api.FetchMaturityRatings
			}
			sel := selector.New(fetch, selector.WithName(name), selector.WithLogger(a.logger), selector.WithTimeout(a.cfg.Timeout()))
			defer sel.Close()

			options := sel.Search(ctx, cmd.Args().First())
			if len(options) == 0 && sel.State().Unavailable {
				return goerr.New("options unavailable", goerr.V("source", name))
			}
			if len(options) == 0 {
				_, err := fmt.Fprintln(a.deps.Stdout, "Sin resultados")
				return err
			}
			_, err = fmt.Fprintln(a.deps.Stdout, renderOptions(options))
			return err
		},
	}
}
