package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krbops/renewhook/internal/hooks"
	"github.com/krbops/renewhook/internal/report"
)

var runAll bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [hook...]",
	Short: "Run renewal hooks",
	Long: `Runs the named renewal hooks, or every registered hook when none are given.

Each hook takes the shared renewal lock, restarts its service only if the
service is currently running, and logs the outcome. Hooks are fire-and-forget
renewal callbacks: run always exits 0, failures go to the log.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every registered hook in priority order")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	reg := newRegistry()

	var list []hooks.Hook
	if runAll || len(args) == 0 {
		list = reg.All()
	} else {
		for _, name := range args {
			h, ok := reg.Get(name)
			if !ok {
				logger.Error("unknown hook", "hook", name)
				continue
			}
			list = append(list, h)
		}
	}

	runner := hooks.NewRunner(newManager(), GetLockPath(), logger)
	outcomes := runner.RunAll(cmd.Context(), list)

	if dir := viper.GetString("metrics.textfile_dir"); dir != "" {
		if err := report.NewTextfile(dir).Write(outcomes); err != nil {
			logger.Error("cannot write metrics textfile", "dir", dir, "error", err)
		}
	}

	// Renewal callbacks never signal failure to their invoker
	return nil
}
