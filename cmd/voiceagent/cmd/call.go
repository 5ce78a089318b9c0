package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/naeemakhtar23/voiceagent/internal/server"
)

var (
	callServer    string
	callEngine    string
	callQuestions []string
)

// callTimeout covers a full demo call, which answers every question
// before the response returns
const callTimeout = 2 * time.Minute

var callCmd = &cobra.Command{
	Use:   "call <phone-number>",
	Short: "Place an outbound survey call",
	Long: `Places an outbound survey call through a running VoiceAgent server.

The server decides how the call is made: over Twilio when telephony is
configured, through the agent platform with --engine agent, or simulated
in demo mode. Demo calls finish immediately and print their results.

Examples:
  voiceagent call +15551234567
  voiceagent call +15551234567 --engine demo
  voiceagent call +15551234567 -q "Do you like surveys?" -q "Will you call back?"`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callServer, "server", "http://localhost:8080", "VoiceAgent server URL")
	callCmd.Flags().StringVar(&callEngine, "engine", "", "Call engine: twilio, agent or demo (default: server decides)")
	callCmd.Flags().StringArrayVarP(&callQuestions, "question", "q", nil, "Question to ask (repeatable, default: configured set)")
}

func runCall(cmd *cobra.Command, args []string) error {
	phone := strings.TrimSpace(args[0])

	body, err := json.Marshal(server.InitiateCallRequest{
		PhoneNumber: phone,
		Questions:   callQuestions,
		Engine:      callEngine,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(callServer, "/") + "/api/v1/calls"
	client := &http.Client{Timeout: callTimeout}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("server not reachable: %v\nStart it with: voiceagent serve", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("call rejected: %s", apiErr.Error)
		}
		return fmt.Errorf("call rejected: HTTP %d", resp.StatusCode)
	}

	var result server.InitiateCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("unexpected response: %v", err)
	}

	printCallResult(phone, result)
	return nil
}

func printCallResult(phone string, result server.InitiateCallResponse) {
	fmt.Printf("Call #%d to %s\n", result.CallID, phone)
	if result.CallSID != "" {
		fmt.Printf("  Call SID: %s\n", result.CallSID)
	}
	if result.DemoMode {
		fmt.Println("  Mode:     demo (simulated)")
	}
	fmt.Printf("  Status:   %s\n", result.Message)

	if result.Results == nil {
		fmt.Println()
		fmt.Printf("Watch progress with: curl %s/api/v1/calls/%d\n",
			strings.TrimRight(callServer, "/"), result.CallID)
		return
	}

	// demo calls return their results inline
	fmt.Println()
	fmt.Printf("%-4s %-50s %-10s %s\n", "#", "QUESTION", "ANSWER", "HEARD")
	fmt.Println(strings.Repeat("-", 90))
	for _, q := range result.Results.Questions {
		fmt.Printf("%-4d %-50s %-10s %s\n",
			q.QuestionNumber, truncate(q.QuestionText, 50), q.Answer, q.RawResponse)
	}
	fmt.Println()
	s := result.Results.Summary
	fmt.Printf("Total: %d question(s), %d yes, %d no, %d unclear\n",
		s.TotalQuestions, s.YesCount, s.NoCount, s.UnclearCount)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
