package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chepyr/tareas/internal/api"
	"github.com/chepyr/tareas/internal/config"
	"github.com/chepyr/tareas/internal/guards"
	"github.com/chepyr/tareas/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// routeAnnotation binds a command to the screen it stands in for.
const routeAnnotation = "route"

// app carries everything a command needs once the root has been set up.
type app struct {
	configPath string
	apiURL     string
	verbose    bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg     *config.Config
	logger  zerolog.Logger
	store   session.Store
	client  *api.Client
	expired bool
}

// Execute runs the root command
func Execute(version string) error {
	root := newRootCmd(&app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr})
	root.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tareas",
		Short: "tareas - a small task manager",
		Long: `tareas signs you in with your email address and keeps a personal list of tasks.

Log in with "tareas login you@example.com", then list, create, edit, toggle and delete tasks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.guard(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.tareas/config.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "backend base URL")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newCreateCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newDeleteCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup() error {
	level := zerolog.InfoLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
		Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	a.cfg = cfg

	a.store = session.NewFileStore(cfg.SessionFile, a.logger)
	httpClient := api.NewHTTPClient(a.store, cfg.Timeout, func() { a.expired = true })
	a.client = api.New(cfg.ResolvedEndpoints(), httpClient, a.logger)
	a.logger.Debug().Str("api_url", cfg.APIURL).Str("session", cfg.SessionFile).Msg("configured")
	return nil
}

// guard applies the route guard of the command, if it has one.
func (a *app) guard(cmd *cobra.Command) error {
	route, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}
	if guards.Navigate(a.store, route) == guards.Route(route) {
		return nil
	}
	if guards.Resolve(route) == guards.RouteLogin {
		return errAlreadyLoggedIn(a.store)
	}
	return errNotLoggedIn
}

func (a *app) exchanger() api.Exchanger {
	if !a.cfg.Exchange.Enabled() {
		return nil
	}
	return &api.IdentityToolkitExchanger{
		URL:    a.cfg.Exchange.URL,
		APIKey: a.cfg.Exchange.APIKey,
		HTTP:   api.NewHTTPClient(session.NewMemoryStore(), a.cfg.Timeout, nil),
	}
}

func homeRoute() map[string]string {
	return map[string]string{routeAnnotation: string(guards.RouteHome)}
}

func loginRoute() map[string]string {
	return map[string]string{routeAnnotation: string(guards.RouteLogin)}
}
