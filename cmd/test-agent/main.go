package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hrygo/honeypot/internal/profile"
	"github.com/hrygo/honeypot/plugin/ai"
	"github.com/hrygo/honeypot/plugin/ai/agent"
	"github.com/hrygo/honeypot/plugin/callback"
	"github.com/hrygo/honeypot/server/service/engagement"
)

// printReporter prints the final report instead of posting it upstream.
type printReporter struct{}

func (printReporter) Deliver(_ context.Context, payload callback.Payload) error {
	out, err := json.MarshalIndent(payload, "  ", "  ")
	if err != nil {
		return err
	}
	fmt.Println("  [report]", string(out))
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 1. Load configuration.
	log.Println("loading configuration...")
	p := &profile.Profile{Mode: "dev", Port: 8080}
	p.FromEnv()

	// 2. Pick a generative backend.
	log.Println("selecting LLM provider...")
	ctx := context.Background()
	llm, err := ai.SelectProvider(ctx, ai.CandidatesFromProfile(p), nil)
	if err != nil {
		log.Printf("no LLM provider available (%v), replies will be fallbacks", err)
	}

	// 3. Build the persona and the orchestrator.
	persona := agent.NewPersonaAgent(llm, agent.Options{
		Deadline:      p.ReplyDeadline,
		MaxConcurrent: p.MaxConcurrentReplies,
	})
	svc, err := engagement.NewService(engagement.Config{
		Threshold:   p.ScamThreshold,
		MaxTurns:    p.MaxTurns,
		TriggerExpr: p.TriggerExpr,
	}, engagement.Deps{
		Agent:    persona,
		Reporter: printReporter{},
	})
	if err != nil {
		log.Fatalf("failed to create engagement service: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("  Honeypot conversation driver")
	fmt.Println("========================================")
	fmt.Println()

	script := []string{
		"Dear customer, your SBI account will be blocked today. Verify your KYC immediately.",
		"Sir this is from bank head office. Share the OTP you received to stop the block.",
		"To avoid suspension pay Rs. 10 verification fee to sbi.verify@okaxis now.",
		"Or call our officer at +91 98765 43210 or open http://sbi-kyc-update.example.com/login",
	}

	sessionID := fmt.Sprintf("driver-%d", time.Now().Unix())
	var history []agent.Turn
	for i, text := range script {
		msg := agent.Turn{
			Sender:    agent.SenderCounterpart,
			Text:      text,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		fmt.Printf("\n[turn %d/%d]\n", i+1, len(script))
		fmt.Println("scammer:", text)

		startTime := time.Now()
		resp := svc.Handle(ctx, &engagement.Request{
			SessionID: sessionID,
			Message:   &msg,
			History:   history,
		})
		duration := time.Since(startTime)

		fmt.Println("persona:", resp.AgentReply)
		fmt.Println("scam detected:", resp.ScamDetected)
		if resp.Reported {
			fmt.Println("  [final report delivered]")
		}
		fmt.Printf("took: %v\n", duration)
		fmt.Println("------------------------------------------------")

		history = append(history, msg, agent.Turn{
			Sender:    agent.SenderPersona,
			Text:      resp.AgentReply,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}

	fmt.Println("\n========================================")
	fmt.Printf("  conversation finished, %d report(s) delivered\n", len(svc.Reports(0)))
	fmt.Println("========================================")
}
