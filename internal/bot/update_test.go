package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartpro-bot/internal/types"
)

func command(text string) *tgbotapi.Message {
	name := text
	for i, r := range text {
		if r == ' ' {
			name = text[:i]
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 1},
		From:     &tgbotapi.User{ID: 2, UserName: "ann"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func TestParseUpdate(t *testing.T) {
	chat := &tgbotapi.Chat{ID: 1}
	from := &tgbotapi.User{ID: 2, UserName: "ann"}
	o := types.Origin{ChatID: 1, UserID: 2, Username: "ann"}

	tests := []struct {
		name string
		in   tgbotapi.Update
		want types.Event
	}{
		{
			name: "command",
			in:   tgbotapi.Update{Message: command("/start ref_42")},
			want: types.Command{Origin: o, Name: "start", Args: "ref_42"},
		},
		{
			name: "text",
			in:   tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: from, Text: "привет"}},
			want: types.TextMessage{Origin: o, Text: "привет"},
		},
		{
			name: "voice",
			in:   tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: from, Voice: &tgbotapi.Voice{FileID: "v1", Duration: 7}}},
			want: types.VoiceMessage{Origin: o, FileID: "v1", Duration: 7},
		},
		{
			name: "photo",
			in:   tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: from, Photo: []tgbotapi.PhotoSize{{FileID: "p"}}}},
			want: types.Unsupported{Origin: o, Kind: "photo"},
		},
		{
			name: "video",
			in:   tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, From: from, Video: &tgbotapi.Video{FileID: "v"}}},
			want: types.Unsupported{Origin: o, Kind: "video"},
		},
		{
			name: "callback",
			in: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb1",
				From:    from,
				Data:    "depth:short",
				Message: &tgbotapi.Message{MessageID: 9, Chat: chat},
			}},
			want: types.ButtonTap{Origin: o, CallbackID: "cb1", MessageID: 9, Data: "depth:short"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUpdate(tt.in)
			if !ok {
				t.Fatal("update ignored")
			}
			if got != tt.want {
				t.Errorf("ParseUpdate = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseUpdateIgnores(t *testing.T) {
	for name, u := range map[string]tgbotapi.Update{
		"empty":          {},
		"edited message": {EditedMessage: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}},
		"service":        {Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}},
	} {
		if _, ok := ParseUpdate(u); ok {
			t.Errorf("%s: should be ignored", name)
		}
	}
}
