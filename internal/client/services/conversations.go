package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/seqassist/seqassist/internal/client/api"
	"github.com/seqassist/seqassist/internal/client/models"
)

const conversationsPath = "/api/conversations"

// ListParams controls conversation pagination.
type ListParams struct {
	Limit  int
	Offset int
}

// ConversationsService reads the user's conversation history.
type ConversationsService interface {
	List(ctx context.Context, params ListParams) (*models.ConversationList, error)
	Get(ctx context.Context, id string) (*models.ConversationDetail, error)
}

type conversationsService struct {
	api api.Client
}

// NewConversationsService constructs a ConversationsService over the given
// API client.
func NewConversationsService(client api.Client) ConversationsService {
	return &conversationsService{api: client}
}

// List fetches one page of conversations, newest first.
func (s *conversationsService) List(ctx context.Context, params ListParams) (*models.ConversationList, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("offset", strconv.Itoa(params.Offset))

	var list models.ConversationList
	if err := s.api.Get(ctx, conversationsPath+"?"+query.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return &list, nil
}

// Get fetches a single conversation with its full message history.
func (s *conversationsService) Get(ctx context.Context, id string) (*models.ConversationDetail, error) {
	var detail models.ConversationDetail
	if err := s.api.Get(ctx, conversationsPath+"/"+url.PathEscape(id), &detail); err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &detail, nil
}
