package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/services/authsvc"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
)

func main() {
	if err := start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}

func start() error {
	conf := core.NewConfig()

	apiURL := flag.String("api", conf.Portal.APIBaseURL, "Base URL of the API.")
	redirect := flag.String("redirect", "", "Page to open once logged in.")
	params := make(session.Params)
	flag.Func("param", "Query param of the login page, as KEY=VALUE. Repeatable.", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return fmt.Errorf("%q is not KEY=VALUE", s)
		}
		params[k] = v
		return nil
	})
	flag.Parse()
	if *redirect != "" {
		params["redirect"] = *redirect
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "PORTAL : ", log.LstdFlags|log.Lmicroseconds), conf)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var readPassword func() (string, error)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		readPassword = func() (string, error) {
			pwd, err := term.ReadPassword(fd)
			return string(pwd), err
		}
	}
	ui := newTerminal(os.Stdin, os.Stdout, readPassword, conf.Portal.Debounce+200*time.Millisecond)

	client := authsvc.NewClient(*apiURL, nil, logger)
	nav := newRouter(client, ui, logger)
	auth := newTrackedAuth(client)

	validate, translator := core.NewValidator()
	ctrl, err := session.NewController(
		session.Deps{
			Auth:       auth,
			Navigator:  nav,
			Notifier:   ui,
			Modals:     ui,
			Title:      ui,
			Params:     session.StaticParams(params),
			Validate:   validate,
			Translator: translator,
			Logger:     logger,
		},
		session.Options{
			DefaultRedirect: conf.Portal.DefaultRedirect,
			PageTitle:       conf.Portal.PageTitle,
			LoginTitle:      conf.Portal.LoginTitle,
			Debounce:        conf.Portal.Debounce,
		},
	)
	if err != nil {
		return errors.Wrap(err, "building session controller")
	}
	defer ctrl.Destroy()

	p := &portal{
		ctrl:            ctrl,
		auth:            auth,
		nav:             nav,
		term:            ui,
		defaultRedirect: conf.Portal.DefaultRedirect,
	}
	if err = p.run(ctx); err != nil {
		return err
	}
	if loc := nav.Current(); loc != "" {
		ui.printf("You are in the %s: %s\n", conf.Portal.PageTitle, loc)
	}
	return nil
}
