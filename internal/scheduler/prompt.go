package scheduler

import (
	"fmt"
	"strings"

	"github.com/brainforge/braind/internal/types"
)

// renderPrompt builds the stdin payload spec.md §4.6 step 4.e calls for:
// "task prompt derived from the task body and user_original_request".
// Spec.md doesn't define the exact layout, so this follows the entry
// service's own appendix convention (a leading H2 heading, blank line,
// body) rather than inventing a new template.
func renderPrompt(task *types.ClassifiedTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", task.Title)
	b.WriteString(task.Body)
	if task.UserOriginalRequest != "" {
		b.WriteString("\n\n## Original Request\n\n")
		b.WriteString(task.UserOriginalRequest)
	}
	return b.String()
}
