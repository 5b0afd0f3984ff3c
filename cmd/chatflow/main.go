package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/chatbtn/chatflow/pkg/actions/local"
	"github.com/chatbtn/chatflow/pkg/log"
	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/otelhelper"
	"github.com/chatbtn/chatflow/pkg/persistence/file"
	"github.com/chatbtn/chatflow/pkg/registry"
	"github.com/chatbtn/chatflow/pkg/workflow"
)

func main() {
	cmd := &cli.Command{
		Name:                  "chatflow",
		Usage:                 "Execute and validate button workflow definitions",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Execute one workflow from a snapshot file",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "snapshot",
				Aliases:  []string{"s"},
				Usage:    "Path to the snapshot document (JSON or YAML)",
				Required: true,
				Sources:  cli.EnvVars("CHATFLOW_SNAPSHOT"),
			},
			&cli.StringSliceFlag{
				Name:  "var",
				Usage: "Initial runtime variable as key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:    "chat-id",
				Usage:   "Chat ID to execute as",
				Value:   "cli",
				Sources: cli.EnvVars("CHATFLOW_CHAT_ID"),
			},
			&cli.StringFlag{
				Name:  "user-id",
				Usage: "User ID to execute as",
				Value: "cli",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Render a preview instead of executing",
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export spans via OTLP",
				Sources: cli.EnvVars("CHATFLOW_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	workflowID := command.Args().First()
	if workflowID == "" {
		return fmt.Errorf("missing workflow ID argument")
	}

	logger := log.WithModule("chatflow")

	if command.Bool("tracing") {
		if _, err := otelhelper.NewTracer(ctx, "chatflow"); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	variables, err := parseVariables(command.StringSlice("var"))
	if err != nil {
		return err
	}

	localRegistry := registry.NewLocalActionRegistry(logger)
	local.RegisterBuiltins(localRegistry)

	modularRegistry := registry.NewModularActionRegistry(logger)

	store := file.NewStore(command.String("snapshot"), modularRegistry)

	executor := workflow.NewActionExecutor(logger, store, localRegistry, modularRegistry)
	defer executor.Close()

	action := &models.ActionDefinition{
		ID:     "cli-run",
		Kind:   string(models.ActionKindWorkflow),
		Config: map[string]any{"workflow_id": workflowID},
	}

	runtime := &models.RuntimeContext{
		ChatID:    command.String("chat-id"),
		UserID:    command.String("user-id"),
		Variables: variables,
	}

	result := executor.Execute(ctx, nil, action, nil, nil, runtime, command.Bool("preview"))

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Println(string(encoded))

	if !result.Success {
		return fmt.Errorf("workflow execution failed: %s", result.Error)
	}

	return nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate every definition in a snapshot file",
		ArgsUsage: "<snapshot-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()
			if path == "" {
				return fmt.Errorf("missing snapshot file argument")
			}

			document, err := file.ReadDocument(path)
			if err != nil {
				return err
			}

			if err := document.Validate(); err != nil {
				return err
			}

			fmt.Printf("%s: %d workflows, %d actions, all valid\n",
				path, len(document.Workflows), len(document.Actions))

			return nil
		},
	}
}

func parseVariables(entries []string) (map[string]any, error) {
	variables := map[string]any{}

	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var entry '%s', expected key=value", entry)
		}

		variables[key] = value
	}

	return variables, nil
}
