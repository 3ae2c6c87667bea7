package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/rankpilot/rankpilot/internal/config"
	"github.com/rankpilot/rankpilot/internal/workflow"
)

// watchDebounce coalesces editor save bursts into one re-run.
const watchDebounce = 500 * time.Millisecond

var watchMock bool

var watchCmd = &cobra.Command{
	Use:   "watch <workflow.json>",
	Short: "Re-run a workflow whenever its definition changes",
	Long: `Watch a workflow definition file and re-execute it on every change.

Useful while authoring a workflow: edit the JSON, save, and see the new
run immediately. Rapid save bursts are coalesced. Press Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchMock, "mock", false, "Echo prompts instead of calling the model")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupDebugLogging(cfg)

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors often replace the file
	// on save, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executeOnce(ctx, cfg, path)

	var debounce *time.Timer
	runs := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping watch.")
			return nil
		case <-runs:
			executeOnce(ctx, cfg, path)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case runs <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

// executeOnce runs the workflow at path, reporting failures without
// stopping the watch loop.
func executeOnce(ctx context.Context, cfg *config.Config, path string) {
	fmt.Printf("— %s —\n", time.Now().Format("15:04:05"))

	graph, err := workflow.LoadDefinition(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load workflow: %v\n", err)
		return
	}

	completer, err := buildCompleter(cfg, watchMock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}

	registry := workflow.NewRegistry(workflow.RegistryDeps{
		Completer: completer,
		Delivery:  buildDeliveryRegistry(cfg),
		DelayCap:  cfg.Engine.DelayCap,
	})
	executor := workflow.NewExecutor(graph, registry,
		workflow.WithFanOut(cfg.Engine.SplitFanOut))

	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(executor.Events())
	}()

	report, err := executor.Run(ctx)
	<-done
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return
	}
	printRunReport(graph, report)
	fmt.Println()
}
