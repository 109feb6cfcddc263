package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	httpd "github.com/raphaelreyna/ez-httpd"
	"github.com/raphaelreyna/ez-httpd/cgi"
	"github.com/raphaelreyna/ez-httpd/internal/status"
)

var version = "dev"

var (
	noError   bool
	logLevel  string
	logFormat string
	useSyslog bool

	root    string
	confine bool

	interpreter   string
	envVars       []string
	inheritEnv    []string
	cgiStatus     bool
	scriptTimeout time.Duration

	statusAddr      string
	shutdownTimeout time.Duration
)

var RootCmd = &cobra.Command{
	Use:     "ez-httpd [server][:port]",
	Version: version,
	Short:   "A tiny HTTP/1.0 server for static files and PHP scripts.",
	Long: `Start an HTTP/1.0 server answering one GET request per connection.

[server]  IPv4 address to bind to. (Default: 127.0.0.1)
[:port]   Port to bind to. (Default: 80)

html, htm, jpg, gif and png files below the document root are sent as they are.
php files are run through a CGI interpreter (php-cgi by default) with QUERY_STRING and
SCRIPT_FILENAME set, and whatever it prints is sent back after a 200 status line.
"/" is served from index.html, index.htm or index.php, whichever exists first.
`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func SetFlags() {
	RootCmd.Flags().BoolVarP(&noError, "quiet", "q", false, `Only log errors.`)
	RootCmd.Flags().StringVar(&logLevel, "log-level", "info", `Minimum level to log: debug, info, warn or error.`)
	RootCmd.Flags().StringVar(&logFormat, "log-format", "console", `Log output format: console or json.`)
	RootCmd.Flags().BoolVar(&useSyslog, "syslog", false, `Also send log lines to the system log.`)

	RootCmd.Flags().StringVarP(&root, "root", "d", "", `Document root.
Defaults to where ez-httpd was called.`,
	)
	RootCmd.Flags().BoolVar(&confine, "confine", false, `Refuse targets that would leave the document root (403).
Off by default: targets are used as sent, ".." included.`,
	)

	RootCmd.Flags().StringVarP(&interpreter, "interpreter", "i", cgi.DefaultInterpreter, `CGI interpreter run for php files.
Looked up on PATH unless it contains a slash.`,
	)
	RootCmd.Flags().StringArrayVarP(&envVars, "env-var", "e", nil, `Environment variable to pass on to the interpreter.
Must be in the form 'KEY=VALUE'.`,
	)
	RootCmd.Flags().StringArrayVar(&inheritEnv, "inherit-env", nil, `Name of an environment variable of ez-httpd to pass on to the interpreter.`)
	RootCmd.Flags().BoolVarP(&cgiStatus, "cgi-status", "C", false, `Use the 'Status:' header printed by a script as the response status.
By default every script response is sent as 200 OK.`,
	)
	RootCmd.Flags().DurationVar(&scriptTimeout, "script-timeout", 0, `Kill scripts running longer than this. 0 waits forever.`)

	RootCmd.Flags().StringVar(&statusAddr, "status-addr", "", `Serve /healthz and /stats on this address.`)
	RootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", httpd.DefaultShutdownTimeout, `On exit, cut connections still open after this long.`)
}

func run(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	addr, err := bindAddress(args)
	if err != nil {
		return err
	}

	s, err := newServer(addr, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), exitSignals...)
	defer stop()

	if statusAddr != "" {
		app := status.NewApp(s.Stats)
		go func() {
			if err := status.Serve(ctx, statusAddr, app, logger); err != nil {
				logger.Error().Err(err).Msg("status endpoint stopped")
			}
		}()
	}

	logger.Info().Str("addr", addr).Str("version", version).Msg("starting ez-httpd")
	err = s.ListenAndServe(ctx)
	if httpd.IsClosed(err) {
		logger.Info().Msg("server stopped")
		return nil
	}
	logger.Error().Err(err).Msg("server failed")
	return err
}

func Execute() {
	SetFlags()
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
