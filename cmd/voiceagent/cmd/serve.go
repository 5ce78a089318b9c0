package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/naeemakhtar23/voiceagent/internal/agent"
	"github.com/naeemakhtar23/voiceagent/internal/server"
	"github.com/naeemakhtar23/voiceagent/internal/store"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
	"github.com/naeemakhtar23/voiceagent/internal/telephony"
	"github.com/naeemakhtar23/voiceagent/pkg/core/config"
	"github.com/naeemakhtar23/voiceagent/pkg/core/version"
)

var (
	servePort      int
	serveHost      string
	serveDB        string
	servePublicURL string
	serveDemo      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the VoiceAgent API server.

The server exposes the REST API for placing calls and reading results,
the Twilio webhook endpoints that drive the call flow, and a WebSocket
feed with live call events.

Without Twilio credentials the server runs in demo mode: calls are
simulated and answered by a scripted caller.

Examples:
  voiceagent serve                    # Defaults from config
  voiceagent serve --port 9090        # Different port
  voiceagent serve --demo             # Force demo mode`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path")
	serveCmd.Flags().StringVar(&servePublicURL, "public-url", "", "Externally reachable base URL for webhooks")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "Simulate calls instead of dialing")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	applyServeFlags(cmd, cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("VoiceAgent")
	fmt.Println("==========")
	fmt.Println()

	st, err := store.New(store.Config{Path: cfg.Database.Path})
	if err != nil {
		printError("opening store", err)
		return err
	}
	defer st.Close()
	fmt.Printf("  [+] Store (SQLite) at %s\n", cfg.Database.Path)

	loader, ctrl := buildSurvey(cfg)
	defer loader.Stop()

	ctrl.StartJanitor(time.Minute, cfg.Survey.SessionIdleTimeout.Duration)
	defer ctrl.StopJanitor()

	dialer := buildDialer(cfg)
	agentClient := buildAgent(cfg)

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		HTTPPort:        cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout.Duration,
		WriteTimeout:    cfg.Server.WriteTimeout.Duration,
		Version:         version.Version,
		PublicURL:       cfg.Server.PublicURL,
		DemoMode:        cfg.Demo.Enabled || dialer == nil,
		DemoAnswerDelay: cfg.Demo.AnswerDelay.Duration,
	}
	srv, err := server.New(srvCfg, server.Deps{
		Store:  st,
		Dialer: dialer,
		Agent:  agentClient,
		Survey: ctrl,
		Sets:   loader,
	})
	if err != nil {
		printError("creating server", err)
		return err
	}

	fmt.Printf("  [+] API server on :%d\n", srvCfg.HTTPPort)
	if srvCfg.DemoMode {
		fmt.Println("  [!] Demo mode: calls are simulated")
	}
	if err := srv.StartAsync(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
	fmt.Printf("Health check: http://localhost:%d/api/v1/health\n", srvCfg.HTTPPort)

	<-sigCh
	fmt.Println("\nStopping...")
	return srv.Stop(context.Background())
}

// applyServeFlags lets explicit flags override the config file
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = serveDB
	}
	if cmd.Flags().Changed("public-url") {
		cfg.Server.PublicURL = servePublicURL
	}
	if cmd.Flags().Changed("demo") {
		cfg.Demo.Enabled = serveDemo
	}
}

// buildSurvey loads the question sets next to the configured questions
// file and starts the hot-reload watcher
func buildSurvey(cfg *config.Config) (*survey.Loader, *survey.Controller) {
	dir := filepath.Dir(cfg.Survey.QuestionsFile)
	loader := survey.NewLoader(dir)
	if err := loader.LoadAll(); err != nil {
		fmt.Printf("  [!] Question sets not loaded (%v), using built-in defaults\n", err)
	}

	set := pickQuestionSet(loader, cfg.Survey.QuestionsFile)
	ctrl := survey.NewController(set)

	loader.SetOnChange(func(id string, changed *survey.QuestionSet) {
		if ctrl.Set().ID == id {
			ctrl.SetQuestionSet(changed)
		}
	})

	if err := loader.StartWatching(); err != nil {
		fmt.Printf("  [+] Question sets from %s\n", dir)
	} else {
		fmt.Printf("  [+] Question sets from %s (hot reload)\n", dir)
	}
	return loader, ctrl
}

// pickQuestionSet selects the set matching the configured file, then
// any loaded set, then the built-in default
func pickQuestionSet(loader *survey.Loader, file string) *survey.QuestionSet {
	base := filepath.Base(file)
	sets := loader.GetAll()
	for _, s := range sets {
		if filepath.Base(s.SourceFile) == base {
			return s
		}
	}
	if len(sets) > 0 {
		return sets[0]
	}
	return survey.DefaultQuestionSet()
}

// buildDialer creates the Twilio dialer when credentials are configured
func buildDialer(cfg *config.Config) telephony.Dialer {
	if !cfg.TelephonyConfigured() {
		fmt.Println("  [!] Telephony not configured, calls run in demo mode")
		return nil
	}
	dialer, err := telephony.NewTwilioDialer(telephony.Config{
		AccountSID: cfg.Telephony.AccountSID,
		AuthToken:  cfg.Telephony.AuthToken,
		FromNumber: cfg.Telephony.FromNumber,
	})
	if err != nil {
		fmt.Printf("  [!] Telephony unavailable: %v\n", err)
		return nil
	}
	fmt.Printf("  [+] Telephony (Twilio) from %s\n", cfg.Telephony.FromNumber)
	return dialer
}

// buildAgent creates the voice-agent platform client when configured
func buildAgent(cfg *config.Config) *agent.Client {
	if cfg.Agent.APIKey == "" {
		return nil
	}
	client, err := agent.NewClient(agent.Config{
		APIKey:        cfg.Agent.APIKey,
		AgentID:       cfg.Agent.AgentID,
		BaseURL:       cfg.Agent.BaseURL,
		PhoneNumberID: cfg.Agent.PhoneNumberID,
	})
	if err != nil {
		fmt.Printf("  [!] Agent platform unavailable: %v\n", err)
		return nil
	}
	fmt.Println("  [+] Agent platform (ElevenLabs)")
	return client
}
