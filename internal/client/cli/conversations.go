package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/seqassist/seqassist/internal/client/services"
)

const defaultPageSize = 20

// List prints one page of the user's conversations. An optional numeric
// argument selects the page.
func (a *App) List(ctx context.Context, args []string) error {
	page := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(a.out, "Usage: list [page]")
			return nil
		}
		page = n - 1
	}

	list, err := a.convService.List(ctx, services.ListParams{
		Limit:  defaultPageSize,
		Offset: page * defaultPageSize,
	})
	if err != nil {
		return err
	}

	if len(list.Conversations) == 0 {
		fmt.Fprintln(a.out, "No conversations")
		return nil
	}
	for _, c := range list.Conversations {
		fmt.Fprintf(a.out, "%s  %s\n", c.ID, c.Title)
	}
	fmt.Fprintf(a.out, "%d of %d total\n", len(list.Conversations), list.Total)
	return nil
}

// Show prints the full message history of one conversation.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return nil
	}

	detail, err := a.convService.Get(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", detail.Title, detail.ID)
	for _, m := range detail.Messages {
		fmt.Fprintf(a.out, "[%s] %s\n", m.Role, m.Content)
	}
	return nil
}
