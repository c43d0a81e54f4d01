package commands

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/brainforge/braind/internal/apiclient"
	"github.com/brainforge/braind/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every classified task for --project as JSON",
	RunE:  runList,
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Print the ready-to-claim tasks for --project as JSON",
	RunE:  runReady,
}

var waitingCmd = &cobra.Command{
	Use:   "waiting",
	Short: "Print the waiting tasks for --project as JSON",
	RunE:  runWaiting,
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "Print the blocked tasks for --project as JSON",
	RunE:  runBlocked,
}

func init() {
	rootCmd.AddCommand(listCmd, readyCmd, waitingCmd, blockedCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runList(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	proj, err := activeProject(profile)
	if err != nil {
		return err
	}
	api := newAPIClient(profile)
	resp, err := api.GetClassifiedTasks(context.Background(), proj)
	if err != nil {
		return operatorError("fetching classified tasks: %w", err)
	}
	return printJSON(cmd, resp)
}

func runReady(cmd *cobra.Command, args []string) error {
	return printClassSubset(cmd, func(ctx context.Context, api *apiclient.Client, proj string) ([]types.ClassifiedTask, error) {
		return api.ListReady(ctx, proj)
	})
}

func runWaiting(cmd *cobra.Command, args []string) error {
	return printClassSubset(cmd, func(ctx context.Context, api *apiclient.Client, proj string) ([]types.ClassifiedTask, error) {
		resp, err := api.GetClassifiedTasks(ctx, proj)
		if err != nil {
			return nil, err
		}
		var out []types.ClassifiedTask
		for _, t := range resp.Tasks {
			if t.Classification == types.ClassWaiting || t.Classification == types.ClassWaitingOnParent {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func runBlocked(cmd *cobra.Command, args []string) error {
	return printClassSubset(cmd, func(ctx context.Context, api *apiclient.Client, proj string) ([]types.ClassifiedTask, error) {
		resp, err := api.GetClassifiedTasks(ctx, proj)
		if err != nil {
			return nil, err
		}
		var out []types.ClassifiedTask
		for _, t := range resp.Tasks {
			if t.Classification == types.ClassBlocked || t.Classification == types.ClassBlockedByParent {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func printClassSubset(cmd *cobra.Command, fetch func(context.Context, *apiclient.Client, string) ([]types.ClassifiedTask, error)) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	proj, err := activeProject(profile)
	if err != nil {
		return err
	}
	api := newAPIClient(profile)
	tasks, err := fetch(context.Background(), api, proj)
	if err != nil {
		return operatorError("fetching tasks: %w", err)
	}
	return printJSON(cmd, tasks)
}
