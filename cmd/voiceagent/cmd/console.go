package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/naeemakhtar23/voiceagent/internal/console"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
)

var (
	consoleAnswers []string
	consoleDelay   time.Duration
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a survey interactively in the terminal",
	Long: `Runs a survey session in the terminal, without a phone call.

Questions come from the configured question set. Answers can be typed,
or spoken by a scripted caller: pressing Enter on an empty input starts
a listen turn that the script answers. When the script runs out the
listen turn stays silent and times out, like a caller who stopped
responding.

Examples:
  voiceagent console
  voiceagent console --answer yes --answer no
  voiceagent console --delay 1s`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringArrayVar(&consoleAnswers, "answer", nil, "Scripted spoken answer (repeatable)")
	consoleCmd.Flags().DurationVar(&consoleDelay, "delay", 400*time.Millisecond, "Pacing of the scripted caller")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// load the question set once, no watcher for a one-shot session
	loader := survey.NewLoader(filepath.Dir(cfg.Survey.QuestionsFile))
	_ = loader.LoadAll()
	set := pickQuestionSet(loader, cfg.Survey.QuestionsFile)

	ccfg := console.DefaultConfig()
	ccfg.Set = set
	ccfg.StepDelay = consoleDelay
	if cmd.Flags().Changed("answer") {
		ccfg.Script = consoleAnswers
	}

	return console.Run(ccfg)
}
