package models

// FileDescriptor identifies a file the backend stored for a generation run:
// an uploaded input or a produced artifact.
type FileDescriptor struct {
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
}

// ExecutionResult captures the outcome of running the generated code on the
// backend.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Stdout  string `json:"stdout"`
	Error   string `json:"error,omitempty"`
}

// GenerationResult is the body returned by the generate endpoint.
type GenerationResult struct {
	Code           string           `json:"code"`
	Execution      ExecutionResult  `json:"execution"`
	ConversationID string           `json:"conversation_id,omitempty"`
	InputFiles     []FileDescriptor `json:"input_files"`
	OutputFiles    []FileDescriptor `json:"output_files"`
}
