// forecast-cli predicts item sales from the terminal, either in-process or against
// a running forecast server.
//
// Usage:
//
//	forecast-cli predict --outlet OUT049 --item FDA15 --type Dairy --fat Low_Fat --visibility 0.016 --mrp 249.8
//	forecast-cli batch items.csv [-o predictions.csv]
//	forecast-cli outlets
//	forecast-cli items FDA
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type globalFlags struct {
	server     string
	configPath string
	timeout    time.Duration
	output     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "forecast-cli",
		Short: "Forecast BigMart item sales per outlet",
		Long: "forecast-cli runs the sales forecast pipeline on single items or CSV uploads.\n" +
			"Without --server the pipeline runs in-process from the local configuration.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.server, "server", "", "Base URL of a running forecast server")
	f.StringVar(&g.configPath, "config", "", "Config file for in-process mode (default: configs/config.yaml)")
	f.DurationVar(&g.timeout, "timeout", 30*time.Second, "Request timeout")
	f.StringVarP(&g.output, "output", "O", outputTable, "Output format: table or json")

	root.AddCommand(newPredictCmd(g))
	root.AddCommand(newBatchCmd(g))
	root.AddCommand(newOutletsCmd(g))
	root.AddCommand(newItemsCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
