package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/seqassist/seqassist/internal/client/api"
	"github.com/seqassist/seqassist/internal/client/models"
)

const generatePath = "/api/generate"

// Attachment is one sequence file bundled with a generation request.
type Attachment struct {
	Name    string
	Content io.Reader
}

// GenerateRequest is the input to a code generation run.
type GenerateRequest struct {
	Query          string
	ConversationID string
	Files          []Attachment
}

// ChatService submits natural-language queries and retrieves generated code
// with its execution results and artifacts.
type ChatService interface {
	GenerateCode(ctx context.Context, req GenerateRequest) (*models.GenerationResult, error)
	DownloadArtifact(ctx context.Context, file models.FileDescriptor, dir string) (string, error)
}

type chatService struct {
	api api.Client
}

// NewChatService constructs a ChatService over the given API client.
func NewChatService(client api.Client) ChatService {
	return &chatService{api: client}
}

// GenerateCode bundles the query text, the optional conversation id, and any
// file attachments into one multipart request.
func (c *chatService) GenerateCode(ctx context.Context, req GenerateRequest) (*models.GenerationResult, error) {
	form := api.NewForm().AddField("query", req.Query)
	if req.ConversationID != "" {
		form.AddField("conversation_id", req.ConversationID)
	}
	for _, f := range req.Files {
		form.AddFile("files", f.Name, f.Content)
	}

	var result models.GenerationResult
	if err := c.api.PostMultipart(ctx, generatePath, form, &result); err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	return &result, nil
}

// DownloadArtifact fetches one output file into dir and returns the path it
// was written to.
func (c *chatService) DownloadArtifact(ctx context.Context, file models.FileDescriptor, dir string) (string, error) {
	if file.DownloadURL == "" {
		return "", fmt.Errorf("artifact %s has no download url", file.Filename)
	}

	path := filepath.Join(dir, filepath.Base(file.Filename))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if err := c.api.Download(ctx, file.DownloadURL, out); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("download %s: %w", file.Filename, err)
	}
	return path, nil
}
