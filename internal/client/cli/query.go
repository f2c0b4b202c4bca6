package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/client/services"
)

// artifactsDir is where downloaded output files land, relative to the
// working directory.
const artifactsDir = "artifacts"

// Ask prompts for a query and optional sequence files, submits a generation
// request, and prints the generated code with its execution results.
func (a *App) Ask(ctx context.Context) error {
	query, err := GetMultiline(a.reader, "Describe the analysis", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(a.out, "Nothing to ask")
		return nil
	}

	conversationID, err := GetSimpleText(a.reader, "Conversation id (empty to start a new one)", a.out)
	if err != nil {
		return err
	}

	files, cleanup, err := a.collectAttachments()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.chatService.GenerateCode(ctx, services.GenerateRequest{
		Query:          query,
		ConversationID: conversationID,
		Files:          files,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "--- generated code ---")
	fmt.Fprintln(a.out, result.Code)
	if result.Execution.Success {
		fmt.Fprintln(a.out, "--- output ---")
		fmt.Fprintln(a.out, result.Execution.Stdout)
	} else {
		fmt.Fprintln(a.out, "--- execution failed ---")
		fmt.Fprintln(a.out, result.Execution.Error)
	}
	if result.ConversationID != "" {
		fmt.Fprintf(a.out, "Conversation: %s\n", result.ConversationID)
	}

	return a.offerArtifacts(ctx, result.OutputFiles)
}

// collectAttachments prompts for file paths until an empty line. The
// returned cleanup closes all opened files.
func (a *App) collectAttachments() ([]services.Attachment, func(), error) {
	var files []services.Attachment
	var handles []*os.File
	cleanup := func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}

	for {
		path, err := GetSimpleText(a.reader, "Attach a sequence file (empty to continue)", a.out)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if path == "" {
			return files, cleanup, nil
		}

		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(a.out, "Cannot open %s: %v\n", path, err)
			continue
		}
		handles = append(handles, f)
		files = append(files, services.Attachment{Name: filepath.Base(path), Content: f})
	}
}

// offerArtifacts downloads each produced output file into artifactsDir
// after asking the user once.
func (a *App) offerArtifacts(ctx context.Context, outputs []models.FileDescriptor) error {
	if len(outputs) == 0 {
		return nil
	}

	fmt.Fprintf(a.out, "%d output file(s) produced:\n", len(outputs))
	for _, f := range outputs {
		fmt.Fprintf(a.out, "  %s\n", f.Filename)
	}

	answer, err := GetSimpleText(a.reader, "Download them? (y/n)", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		return nil
	}

	dir, err := ensureDir(artifactsDir)
	if err != nil {
		return err
	}
	for _, f := range outputs {
		path, err := a.chatService.DownloadArtifact(ctx, f, dir)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to download %s: %v\n", f.Filename, err)
			continue
		}
		fmt.Fprintf(a.out, "Saved %s\n", path)
	}
	return nil
}

// ensureDir creates (if needed) a subdirectory of the working directory and
// returns its absolute path.
func ensureDir(name string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	dir := filepath.Join(cwd, name)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
