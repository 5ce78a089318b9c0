package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/naeemakhtar23/voiceagent/pkg/core/config"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "voiceagent",
	Short: "VoiceAgent - Automated yes/no phone surveys",
	Long: `VoiceAgent places automated phone calls that ask yes/no survey
questions, captures the spoken answers and stores the results.

Commands:
  serve    - Start the API server with webhooks for call flows
  call     - Place an outbound survey call
  console  - Run a survey interactively in the terminal
  devices  - List available audio input devices
  version  - Show version information`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./configs/voiceagent.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// initEnv pulls a local .env into the environment so config secret
// expansion (${TWILIO_AUTH_TOKEN} and friends) finds its values
func initEnv() {
	_ = godotenv.Load()
}

// loadConfig loads the configuration honoring the --config flag, with
// a warning fallback to defaults when no file is readable
func loadConfig() *config.Config {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Printf("Warning: config not loaded (%v), using defaults\n", err)
		cfg = config.Default()
	}

	applyLogging(cfg)
	return cfg
}

// applyLogging sets the global log level from config and flags
func applyLogging(cfg *config.Config) {
	levelName := cfg.General.LogLevel
	if verbose {
		levelName = "debug"
	}
	if level, err := logging.ParseLevel(levelName); err == nil {
		logging.SetGlobalLevel(level)
	}
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
