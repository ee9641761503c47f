// Command newsdesk runs the news portal API and the admin tools that talk
// to it.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"newsdesk/internal/config"
	"newsdesk/internal/logging"
)

var (
	configFile string

	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "News portal API and admin dashboard",
	Long: `newsdesk serves the public news portal API (posts, categories, tags,
announcements, departments, comments) and the admin API behind it. The
admin and ticker commands are clients of a running server.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: app.yaml in . or ./config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(tickerCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.LoadFrom(configFile)
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())
	return nil
}
