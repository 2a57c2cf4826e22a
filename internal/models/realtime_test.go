package models_test

import (
	"strings"
	"testing"

	"anonchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestInboundMessage_Validate(t *testing.T) {
	tests := []struct {
		name string
		msg  models.InboundMessage
		want error
	}{
		{
			name: "valid chat",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeChat, Content: "hi"},
		},
		{
			name: "valid enter",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeEnter},
		},
		{
			name: "valid read",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeRead},
		},
		{
			name: "valid leave",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeLeave},
		},
		{
			name: "missing room",
			msg:  models.InboundMessage{Type: models.MessageTypeChat, Content: "hi"},
			want: models.ErrRoomIDRequired,
		},
		{
			name: "missing type",
			msg:  models.InboundMessage{RoomID: 1},
			want: models.ErrTypeRequired,
		},
		{
			name: "chat without content",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeChat},
			want: models.ErrContentRequired,
		},
		{
			name: "chat at length cap",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeChat, Content: strings.Repeat("а", models.MaxChatContentLen)},
		},
		{
			name: "chat over length cap",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeChat, Content: strings.Repeat("а", models.MaxChatContentLen+1)},
			want: models.ErrContentTooLong,
		},
		{
			name: "content on enter",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeEnter, Content: "hi"},
			want: models.ErrContentNotAllowed,
		},
		{
			name: "content on read",
			msg:  models.InboundMessage{RoomID: 1, Type: models.MessageTypeRead, Content: "hi"},
			want: models.ErrContentNotAllowed,
		},
		{
			name: "unknown type",
			msg:  models.InboundMessage{RoomID: 1, Type: "TYPING"},
			want: models.ErrUnsupportedMsgType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestContentCapCountsRunesNotBytes(t *testing.T) {
	// Multi-byte runes: 2000 of them exceed 2000 bytes but pass the cap.
	content := strings.Repeat("ы", models.MaxChatContentLen)
	msg := models.InboundMessage{RoomID: 1, Type: models.MessageTypeChat, Content: content}

	assert.Greater(t, len(content), models.MaxChatContentLen)
	assert.NoError(t, msg.Validate())
}
