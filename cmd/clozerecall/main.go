package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/clozerecall/internal/cli"
	"codeberg.org/snonux/clozerecall/internal/processor"
)

// statsLimit is the number of words listed by the stats command.
const statsLimit = 25

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create command tree
	cmds := cli.CreateCommands(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc := processor.NewProcessor(flags, os.Stdout)

	// Set the run functions
	cmds.Root.RunE = func(cmd *cobra.Command, args []string) error {
		return proc.RunDrill(ctx)
	}
	cmds.Import.RunE = func(cmd *cobra.Command, args []string) error {
		return proc.ImportSourceData(ctx)
	}
	cmds.Stats.RunE = func(cmd *cobra.Command, args []string) error {
		return proc.PrintStats(ctx, statsLimit)
	}
	cmds.Weights.RunE = func(cmd *cobra.Command, args []string) error {
		return runWeights(cmd, proc, flags)
	}
	cmds.Models.RunE = func(cmd *cobra.Command, args []string) error {
		return proc.ListModels(ctx)
	}

	// Execute command
	if err := cmds.Root.Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}

// runWeights prints the factors, or saves them when a factor flag is given.
// A factor left out keeps its configured value.
func runWeights(cmd *cobra.Command, proc *processor.Processor, flags *cli.Flags) error {
	succeededSet := cmd.Flags().Changed("succeeded")
	failedSet := cmd.Flags().Changed("failed")
	if !succeededSet && !failedSet {
		proc.ShowWeights()
		return nil
	}

	factors := proc.WeightFactors()
	if succeededSet {
		factors.Succeeded = flags.WeightSucceeded
	}
	if failedSet {
		factors.Failed = flags.WeightFailed
	}
	return proc.SaveWeights(factors)
}
