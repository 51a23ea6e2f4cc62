// Package cli implements the kvops command line.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App is the kvops CLI.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	memory     bool
	redisAddr  string
}

// New creates the CLI with every subcommand registered.
func New() *App {
	a := &App{stdout: os.Stdout, stderr: os.Stderr}

	a.root = &cobra.Command{
		Use:   "kvops",
		Short: "Redis-backed value cache with call recording and page caching",
		Long: `kvops stores values in Redis under generated keys, records every store
call (count, inputs, outputs) so it can be replayed, and caches fetched web
pages for a short time while counting accesses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := a.root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", os.Getenv("KVOPS_CONFIG"), "path to the YAML configuration file")
	flags.BoolVar(&a.memory, "memory", false, "use an in-process store instead of Redis")
	flags.StringVar(&a.redisAddr, "redis", "", "Redis address, overriding the configuration")

	a.root.AddCommand(
		a.newVersionCmd(),
		a.newServeCmd(),
		a.newStoreCmd(),
		a.newGetCmd(),
		a.newReplayCmd(),
		a.newFetchCmd(),
		a.newTokenCmd(),
		a.newDemoCmd(),
	)
	return a
}

// WithOutput redirects command output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI until it finishes or SIGINT/SIGTERM arrives.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with args instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.root.ExecuteContext(ctx)
}
