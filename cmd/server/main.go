package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	_ "modernc.org/sqlite"

	"github.com/jrsteele09/timely-server/internal/config"
	"github.com/jrsteele09/timely-server/internal/logging"
	"github.com/jrsteele09/timely-server/internal/shutdown"
	"github.com/jrsteele09/timely-server/server"
	"github.com/jrsteele09/timely-server/sessions"
	"github.com/jrsteele09/timely-server/users"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration file",
		EnvVars: []string{"TIMELY_CONFIG"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "timely",
		Usage:  "Timely login and session server",
		Flags:  []cli.Flag{configFlag()},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
			{
				Name:      "hash-password",
				Usage:     "Print a password hash for a credentials file entry",
				ArgsUsage: "<password>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "argon2id", Usage: "Use argon2id instead of bcrypt"},
					&cli.BoolFlag{Name: "allow-weak", Usage: "Skip the password strength check"},
				},
				Action: hashPassword,
			},
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Setup(cfg.GetLogLevel(), cfg.GetEnv())
	displayAppname(c.App.Writer, cfg.GetAppName())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	latch := shutdown.NewLatch(shutdownTimeout)

	authenticator, closer, err := server.NewAuthenticator(ctx, cfg)
	if err != nil {
		return err
	}
	latch.OnShutdown("credential backend", func(context.Context) error {
		return closer.Close()
	})

	cache := sessions.New(
		sessions.WithMaxAge(cfg.GetMaxSessionAge()),
		sessions.WithSweepInterval(cfg.GetSessionSweepInterval()),
	)
	cache.StartCleanup(ctx)
	latch.OnShutdown("session sweeper", func(context.Context) error {
		cache.Stop()
		return nil
	})

	handler, err := server.New(cfg, authenticator, cache, server.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	latch.OnShutdown("http server", httpServer.Shutdown)

	go listenAndServe(httpServer, latch)

	log.Info().
		Str("addr", httpServer.Addr).
		Str("cookie_domain", cfg.GetServerAddress()).
		Stringer("cors_origins", cfg.GetAllowedOrigins()).
		Dur("session_max_age", cache.MaxAge()).
		Msg("server started")

	return latch.Wait(ctx)
}

func listenAndServe(httpServer *http.Server, latch *shutdown.Latch) {
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Err(err).Msg("server.ListenAndServe")
		latch.Release()
	}
}

func hashPassword(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		return cli.Exit("a password argument is required", 2)
	}
	if !c.Bool("allow-weak") {
		if err := users.ValidatePasswordStrength(password); err != nil {
			return cli.Exit(fmt.Sprintf("%v (use --allow-weak to hash it anyway)", err), 2)
		}
	}

	hash := users.HashPassword
	if c.Bool("argon2id") {
		hash = users.HashPasswordArgon2id
	}
	h, err := hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, h)
	return err
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
