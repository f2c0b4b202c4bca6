package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqassist/seqassist/internal/client/api"
	"github.com/seqassist/seqassist/internal/client/models"
)

func TestConversationsService_List(t *testing.T) {
	fake := &fakeAPI{GetResp: &models.ConversationList{
		Conversations: []models.Conversation{
			{ID: "c1", Title: "BAM statistics"},
			{ID: "c2", Title: "FASTA cleanup"},
		},
		Total: 12,
	}}
	svc := NewConversationsService(fake)

	list, err := svc.List(context.Background(), ListParams{Limit: 2, Offset: 4})
	require.NoError(t, err)

	assert.Equal(t, "/api/conversations?limit=2&offset=4", fake.LastPath)
	assert.Equal(t, 12, list.Total)
	require.Len(t, list.Conversations, 2)
	assert.Equal(t, "c1", list.Conversations[0].ID)
}

func TestConversationsService_Get(t *testing.T) {
	fake := &fakeAPI{GetResp: &models.ConversationDetail{
		Conversation: models.Conversation{ID: "c1", Title: "BAM statistics"},
		Messages: []models.Message{
			{Role: "user", Content: "count reads"},
			{Role: "assistant", Content: "import pysam"},
		},
	}}
	svc := NewConversationsService(fake)

	detail, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, "/api/conversations/c1", fake.LastPath)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "assistant", detail.Messages[1].Role)
}

func TestConversationsService_GetEscapesID(t *testing.T) {
	fake := &fakeAPI{GetResp: &models.ConversationDetail{}}
	svc := NewConversationsService(fake)

	_, err := svc.Get(context.Background(), "c/../1")
	require.NoError(t, err)
	assert.Equal(t, "/api/conversations/c%2F..%2F1", fake.LastPath)
}

func TestConversationsService_ListPropagatesError(t *testing.T) {
	fake := &fakeAPI{GetErr: api.ErrSessionExpired}
	svc := NewConversationsService(fake)

	_, err := svc.List(context.Background(), ListParams{Limit: 10})
	require.ErrorIs(t, err, api.ErrSessionExpired)
}
