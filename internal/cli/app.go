// Package cli is the stashd command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/next-trace/stashit/config"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App is the command tree plus its output streams.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configFile string
	configDir  string
}

// New builds the command tree.
func New() *App {
	a := &App{stdout: os.Stdout, stderr: os.Stderr}

	a.root = &cobra.Command{
		Use:   "stashd",
		Short: "Stash and ledger runtime",
		Long: `stashd wires the user, stash and governance services onto one in-process event bus.

Configuration comes from <config-dir>/<APP_ENVIRONMENT>.yaml, or from --config,
then from APP_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "configuration file (overrides --config-dir)")
	a.root.PersistentFlags().StringVar(&a.configDir, "config-dir", "config", "directory holding <environment>.yaml")

	a.root.AddCommand(
		a.newVersionCmd(),
		a.newConfigCmd(),
		a.newSimulateCmd(),
	)

	return a
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)

	return a
}

// Execute runs the command line until it finishes or the process is interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the command line with args instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) loadConfig() (config.Config, error) {
	if a.configFile != "" {
		return config.LoadFile(a.configFile)
	}

	return config.Load(a.configDir)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "stashd version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}
