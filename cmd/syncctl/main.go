package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ai-analytics-client/internal/bootstrap"
	"ai-analytics-client/internal/config"
	"ai-analytics-client/internal/pkg/telemetry"
	"ai-analytics-client/pkg/sync/hydrate"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: syncctl <workspace-id>")
		os.Exit(2)
	}
	workspaceId, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("[FATAL] Invalid workspace id: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Enabled, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	result, err := container.Pipeline.Run(ctx, workspaceId)
	if err != nil {
		// Only a superseded run returns an error; with a single caller it
		// should not happen.
		log.Fatalf("[FATAL] Hydration aborted: %v", err)
	}
	container.ChatService.ApplyHydration(result)

	printResult(result)

	// Give the debounced reconciliation write a chance to flush.
	container.Persister.Flush(ctx)
}

func printResult(res *hydrate.Result) {
	switch res.State {
	case hydrate.StateSynced:
		color.Green("state: synced")
	case hydrate.StateEmpty:
		color.Yellow("state: empty (no READY datasource)")
	case hydrate.StateFailed:
		color.Red("state: failed at step %s: %v", res.Err.Step, res.Err.Err)
		return
	}

	fmt.Printf("datasources: %d\n", len(res.Datasources))
	for _, ds := range res.Datasources {
		marker := "  "
		if res.DatasetID != nil && ds.Id == *res.DatasetID {
			marker = "* "
		}
		fmt.Printf("  %s%s [%s] %s\n", marker, ds.Id, ds.Status, ds.Name)
	}

	if res.DatasetID == nil {
		return
	}
	fmt.Printf("sessions: %d\n", len(res.Sessions))
	for _, s := range res.Sessions {
		marker := "  "
		if res.SessionID != nil && s.Id == *res.SessionID {
			marker = "* "
		}
		fmt.Printf("  %s%s %s\n", marker, s.Id, s.Title)
	}

	if res.SessionID != nil {
		more := ""
		if res.HasMore {
			more = " (older pages available)"
		}
		fmt.Printf("messages on first page: %d%s\n", len(res.Messages), more)
	}
}
