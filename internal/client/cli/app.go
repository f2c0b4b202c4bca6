// Package cli implements the interactive SeqAssist shell: a small REPL over
// the auth, chat, and conversations services.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/seqassist/seqassist/internal/client/api"
	"github.com/seqassist/seqassist/internal/client/config"
	"github.com/seqassist/seqassist/internal/client/services"
	"github.com/seqassist/seqassist/internal/client/session"
	"github.com/seqassist/seqassist/internal/cryptox"
	"github.com/seqassist/seqassist/internal/logging"
)

type App struct {
	config *config.Config
	db     *sql.DB

	authService services.AuthService
	chatService services.ChatService
	convService services.ConversationsService

	userName string
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp wires the full client: credential database, sealing key, access
// layer, and services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := session.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init credential database: %w", err)
	}

	key, err := cryptox.LoadOrCreateKey(c.KeyFilePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load sealing key: %w", err)
	}
	box, err := cryptox.NewBox(key)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := session.NewStore(db, box)
	log := logging.NewDefault(slog.LevelWarn)

	apiClient := api.New(c.APIBaseURL, store,
		api.WithLogger(log),
		api.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
	)

	a := &App{
		config:      c,
		db:          db,
		authService: services.NewAuthService(apiClient, store),
		chatService: services.NewChatService(apiClient),
		convService: services.NewConversationsService(apiClient),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}

	apiClient.OnSessionExpired(func() {
		a.userName = ""
		fmt.Fprintln(a.out, "Session expired, please log in again.")
	})

	// pick up a session left over from a previous run
	if user, err := store.User(ctx); err == nil && user != nil {
		a.userName = user.Username
	}

	return a, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, scanner, a, a.getStatus, a.out)
}

// Close releases the credential database.
func (a *App) Close() {
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.authService.IsAuthenticated(context.Background())
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}
