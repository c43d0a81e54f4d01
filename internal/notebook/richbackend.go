package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/brainforge/braind/internal/apierr"
)

// RichBackend shells out to a configured external indexer binary and
// parses its JSON stdout, mirroring the teacher's WezTerm CLI
// shell-out pattern in agents/spawner.go — generalized here from
// "terminal multiplexer" to "external search indexer". Absence of the
// binary on $PATH surfaces as apierr.BackendUnavailable, never a
// panic, per spec.md §4.1.
type RichBackend struct {
	binary  string
	root    string
	timeout time.Duration
}

// NewRichBackend returns a backend that shells out to binary (resolved
// via $PATH) against the given notebook root. If binary can't be
// found, every call returns apierr.BackendUnavailable rather than
// failing at construction time, since a server may still serve
// DirectFileBackend-only traffic without the indexer installed.
func NewRichBackend(binary, root string) *RichBackend {
	return &RichBackend{binary: binary, root: root, timeout: 30 * time.Second}
}

func (b *RichBackend) Name() string { return "rich:" + b.binary }

func (b *RichBackend) available() error {
	if _, err := exec.LookPath(b.binary); err != nil {
		return apierr.BackendUnavailable(fmt.Sprintf("notebook: rich backend binary %q not on PATH", b.binary))
	}
	return nil
}

func (b *RichBackend) run(ctx context.Context, args []string, out any) error {
	if err := b.available(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.Dir = b.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return apierr.BackendUnavailable(fmt.Sprintf("notebook: rich backend failed: %v: %s", err, stderr.String()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return apierr.Internal("notebook: parse rich backend output", err)
	}
	return nil
}

func (b *RichBackend) ListByFilters(filters ListFilters) ([]Row, error) {
	var rows []Row
	args := []string{"list", "--root", b.root}
	if filters.Type != "" {
		args = append(args, "--type", filters.Type)
	}
	if filters.Tag != "" {
		args = append(args, "--tag", filters.Tag)
	}
	if err := b.run(context.Background(), args, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (b *RichBackend) GetByPathOrID(ref string) (*Row, error) {
	var row Row
	if err := b.run(context.Background(), []string{"get", ref, "--root", b.root}, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (b *RichBackend) Search(query string, filters ListFilters) ([]Row, error) {
	var rows []Row
	args := []string{"search", query, "--root", b.root}
	if filters.Type != "" {
		args = append(args, "--type", filters.Type)
	}
	if err := b.run(context.Background(), args, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
