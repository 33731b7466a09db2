package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-cms-forms/pkg/auth"
	"github.com/goliatone/go-cms-forms/pkg/uischema"
)

func (a *app) cmdLogin() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, _, err := a.session()
			if err != nil {
				return err
			}
			p, err := a.prompter()
			if err != nil {
				return err
			}
			_, err = p.Login(ctx, session, a.forms.MustForm(uischema.FormLogin))
			return err
		},
	}
}

func (a *app) cmdLogout() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, _, err := a.session()
			if err != nil {
				return err
			}
			if err := session.Logout(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.deps.Stdout, "Sesión cerrada")
			return err
		},
	}
}

func (a *app) cmdStatus() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show where the client would start",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			session, _, err := a.session()
			if err != nil {
				return err
			}
			route := session.Restore(ctx)
			if route != auth.RouteHome {
				_, err = fmt.Fprintf(a.deps.Stdout, "%s: sin sesión\n", route)
				return err
			}
			id := session.State().Identity
			_, err = fmt.Fprintf(a.deps.Stdout, "%s: %s %s\n", route, id.Nombre, id.Apellido)
			return err
		},
	}
}
