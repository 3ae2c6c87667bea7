package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rankpilot/rankpilot/internal/config"
	"github.com/rankpilot/rankpilot/internal/deliver"
	"github.com/rankpilot/rankpilot/internal/llm"
	"github.com/rankpilot/rankpilot/internal/workflow"

	"github.com/anthropics/anthropic-sdk-go"
)

var runMock bool

var runCmd = &cobra.Command{
	Use:   "run <workflow.json>",
	Short: "Execute a workflow graph",
	Long: `Load a workflow definition from JSON and execute it from its trigger.

Each node's status is streamed to the terminal as it runs. A node failure
stops its own downstream path only; sibling branches keep running. The
command exits non-zero when any node failed.

With --mock, agent nodes echo their prompt instead of calling the API,
which is useful for validating graph wiring without spending tokens.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().BoolVar(&runMock, "mock", false, "Echo prompts instead of calling the model")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupDebugLogging(cfg)

	graph, err := workflow.LoadDefinition(args[0])
	if err != nil {
		return fmt.Errorf("load workflow: %w", err)
	}

	completer, err := buildCompleter(cfg, runMock)
	if err != nil {
		return err
	}

	registry := workflow.NewRegistry(workflow.RegistryDeps{
		Completer: completer,
		Delivery:  buildDeliveryRegistry(cfg),
		DelayCap:  cfg.Engine.DelayCap,
	})

	executor := workflow.NewExecutor(graph, registry,
		workflow.WithFanOut(cfg.Engine.SplitFanOut))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		executor.Cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printEvents(executor.Events())
	}()

	report, err := executor.Run(ctx)
	wg.Wait()
	if err != nil {
		return err
	}

	printRunReport(graph, report)
	if len(report.Errors) > 0 {
		return fmt.Errorf("%d node(s) failed", len(report.Errors))
	}
	return nil
}

// printEvents streams node transitions until the executor closes the channel.
func printEvents(events <-chan workflow.NodeEvent) {
	running := color.New(color.FgYellow)
	success := color.New(color.FgGreen)
	failed := color.New(color.FgRed)

	for ev := range events {
		switch ev.Status {
		case workflow.StatusRunning:
			running.Printf("  ▸ %s running\n", ev.NodeID)
		case workflow.StatusSuccess:
			success.Printf("  ✓ %s\n", ev.NodeID)
		case workflow.StatusError:
			failed.Printf("  ✗ %s: %s\n", ev.NodeID, ev.Err)
		}
	}
}

func printRunReport(graph *workflow.Graph, report *workflow.RunReport) {
	fmt.Println()
	if report.Cancelled {
		color.Yellow("Run cancelled: %d of %d nodes executed", report.Visited, graph.Size())
		return
	}
	if report.Complete(graph.Size()) {
		color.Green("Run complete: %d nodes executed", report.Visited)
		return
	}
	color.Yellow("Run finished: %d of %d nodes executed, %d failed",
		report.Visited, graph.Size(), len(report.Errors))
	for nodeID, msg := range report.Errors {
		color.Red("  %s: %s", nodeID, msg)
	}
}

// buildCompleter returns the configured completion backend.
func buildCompleter(cfg *config.Config, mock bool) (llm.Completer, error) {
	if mock {
		return mockCompleter{}, nil
	}

	apiKey := ""
	if !cfg.Anthropic.UseBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	client, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		MaxTokens:     int64(cfg.Anthropic.MaxTokens),
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return client, nil
}

// mockCompleter echoes prompts for offline graph validation.
type mockCompleter struct{}

func (mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return fmt.Sprintf("[mock] %s", user), nil
}

// buildDeliveryRegistry wires every configured outbound channel. The
// notification channel always gets an in-memory inbox so report nodes can
// target it without external setup.
func buildDeliveryRegistry(cfg *config.Config) *deliver.Registry {
	adapters := []deliver.Adapter{
		deliver.NewWebhookAdapter(),
		deliver.NewNotificationAdapter(deliver.NewInboxSink()),
	}
	if cfg.Delivery.Email.Host != "" {
		adapters = append(adapters, deliver.NewEmailAdapter(deliver.EmailConfig{
			Host:     cfg.Delivery.Email.Host,
			Port:     cfg.Delivery.Email.Port,
			From:     cfg.Delivery.Email.From,
			Username: cfg.Delivery.Email.Username,
			Password: cfg.Delivery.Email.Password,
			Subject:  cfg.Delivery.Email.Subject,
		}))
	}
	if cfg.Delivery.WhatsApp.GatewayURL != "" {
		adapters = append(adapters, deliver.NewWhatsAppAdapter(deliver.WhatsAppConfig{
			GatewayURL: cfg.Delivery.WhatsApp.GatewayURL,
			Token:      cfg.Delivery.WhatsApp.Token,
		}))
	}
	return deliver.NewRegistry(adapters...)
}

// setupDebugLogging enables file-based debug logs when requested via the
// --debug-log flag or config. It returns the logger so commands can feed
// it into components with their own logging hooks; nil when disabled.
func setupDebugLogging(cfg *config.Config) *workflow.DebugLogger {
	path := debugLogPath
	if path == "" {
		path = cfg.Logging.DebugLogPath
	}
	if path == "" {
		return nil
	}
	logger, err := workflow.NewDebugLogger(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
		return nil
	}
	workflow.SetDebugLogger(logger)
	return logger
}
