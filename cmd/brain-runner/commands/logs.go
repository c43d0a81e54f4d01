package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logsTail int

var logsCmd = &cobra.Command{
	Use:   "logs <task-id>",
	Short: "Print the agent process log captured for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logsTail, "tail", 0, "print only the last N lines (0 prints the whole file)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	if profile.Launch.LogDir == "" {
		return operatorError("launch.log_dir is not configured in the runner profile")
	}

	taskID := args[0]
	path := profile.Launch.LogDir + "/" + taskID + ".log"

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return operatorError("no log file for task %s at %s", taskID, path)
		}
		return operatorError("opening log file %s: %w", path, err)
	}
	defer f.Close()

	if logsTail <= 0 {
		_, err := io.Copy(cmd.OutOrStdout(), f)
		return err
	}
	return printTail(cmd, f, logsTail)
}

// printTail prints the last n lines of f, reading the whole file once
// into memory — log files here are per-task agent transcripts, never
// large enough to justify a seek-backwards ring-buffer read.
func printTail(cmd *cobra.Command, f *os.File, n int) error {
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	lines := splitLines(string(data))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
