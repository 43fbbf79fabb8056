package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tahrir",
	Short: "Tahrir - Persian blog article generator",
	Long: `Tahrir generates SEO-oriented Persian blog articles for a keyword.

It retrieves reference passages from an indexed corpus, generates the
article in phases (introduction, planned body sections, validation),
scores the result across quality dimensions with a single repair pass,
and can publish the finished article to WordPress as a draft.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
