package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/services"
	"devmatch/internal/events"
)

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	_, room := env.matched(t, ada, linus)

	var got []events.MessageSent
	unsub, err := env.bus.Subscribe(events.SubjectChatMessage, func(data []byte) {
		var evt events.MessageSent
		require.NoError(t, json.Unmarshal(data, &evt))
		got = append(got, evt)
	})
	require.NoError(t, err)
	defer unsub()

	msg, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: ada, Content: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, ada, msg.SenderID)
	assert.Nil(t, msg.ReadAt)

	require.Len(t, got, 1)
	assert.Equal(t, msg.ID, got[0].Message.ID)
	assert.Equal(t, linus, got[0].RecipientID)
}

func TestSendMessageRejects(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	_, room := env.matched(t, ada, linus)
	max := testPolicy().Messages.MaxLength

	tests := []struct {
		name   string
		sender string
		roomID string
		text   string
		want   error
	}{
		{"blank", ada, room.ID, "   ", domain.ErrValidation},
		{"too long", ada, room.ID, strings.Repeat("é", max+1), domain.ErrValidation},
		{"bad room id", ada, "room", "hi", domain.ErrValidation},
		{"unknown room", ada, "f0000000-0000-4000-8000-00000000000f", "hi", domain.ErrNotFound},
		{"outsider", grace, room.ID, "hi", domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: tt.roomID, SenderID: tt.sender, Content: tt.text})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: ada, Content: strings.Repeat("é", max)})
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestSendMessageArchivedMatch(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()

	m := &models.Match{User1ID: ada, User2ID: grace, Status: models.MatchStatusArchived}
	_, err := env.db.Matches.Create(ctx, m)
	require.NoError(t, err)
	room, _, err := env.svc.Matches.CreateChatRoom(ctx, m.ID)
	require.NoError(t, err)

	_, err = env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: ada, Content: "still there?"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListMessagesPaging(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	_, room := env.matched(t, ada, linus)

	for i := 0; i < 5; i++ {
		sender := ada
		if i%2 == 1 {
			sender = linus
		}
		_, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: sender, Content: string(rune('a' + i))})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page, err := env.svc.Chat.ListMessages(ctx, &services.ListMessagesRequest{RoomID: room.ID, UserID: linus, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].Content)
	assert.Equal(t, "e", page[1].Content)

	older, err := env.svc.Chat.ListMessages(ctx, &services.ListMessagesRequest{RoomID: room.ID, UserID: linus, Before: &page[0].CreatedAt})
	require.NoError(t, err)
	require.Len(t, older, 3)
	assert.Equal(t, "a", older[0].Content)

	_, err = env.svc.Chat.ListMessages(ctx, &services.ListMessagesRequest{RoomID: room.ID, UserID: grace})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	ctx := context.Background()
	_, room := env.matched(t, ada, linus)

	for _, text := range []string{"one", "two"} {
		_, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: ada, Content: text})
		require.NoError(t, err)
	}
	_, err := env.svc.Chat.SendMessage(ctx, &services.SendMessageRequest{RoomID: room.ID, SenderID: linus, Content: "three"})
	require.NoError(t, err)

	published := 0
	unsub, err := env.bus.Subscribe(events.SubjectMessagesRead, func([]byte) { published++ })
	require.NoError(t, err)
	defer unsub()

	n, err := env.svc.Chat.MarkRead(ctx, room.ID, linus)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = env.svc.Chat.MarkRead(ctx, room.ID, linus)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, published)

	list, err := env.svc.Matches.ListMatches(ctx, ada)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UnreadCount)

	_, err = env.svc.Chat.MarkRead(ctx, room.ID, grace)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
