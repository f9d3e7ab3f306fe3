package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartpro-bot/internal/types"
)

// ParseUpdate converts a Telegram update into an event. ok is false for
// updates the bot ignores (edits, channel posts, service messages).
func ParseUpdate(u tgbotapi.Update) (types.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		o := types.Origin{}
		if cq.From != nil {
			o.UserID = cq.From.ID
			o.Username = cq.From.UserName
			o.ChatID = cq.From.ID
		}
		tap := types.ButtonTap{Origin: o, CallbackID: cq.ID, Data: cq.Data}
		if cq.Message != nil {
			tap.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				tap.ChatID = cq.Message.Chat.ID
			}
		}
		return tap, tap.ChatID != 0
	}

	m := u.Message
	if m == nil || m.Chat == nil {
		return nil, false
	}
	o := types.Origin{ChatID: m.Chat.ID}
	if m.From != nil {
		o.UserID = m.From.ID
		o.Username = m.From.UserName
	}

	switch {
	case m.IsCommand():
		return types.Command{Origin: o, Name: m.Command(), Args: m.CommandArguments()}, true
	case m.Voice != nil:
		return types.VoiceMessage{Origin: o, FileID: m.Voice.FileID, Duration: m.Voice.Duration}, true
	case m.Audio != nil:
		// Audio files go through the same transcription path as voice notes.
		return types.VoiceMessage{Origin: o, FileID: m.Audio.FileID, Duration: m.Audio.Duration}, true
	case m.Text != "":
		return types.TextMessage{Origin: o, Text: m.Text}, true
	case len(m.Photo) > 0:
		return types.Unsupported{Origin: o, Kind: "photo"}, true
	case m.Video != nil:
		return types.Unsupported{Origin: o, Kind: "video"}, true
	case m.VideoNote != nil:
		return types.Unsupported{Origin: o, Kind: "video_note"}, true
	case m.Document != nil:
		return types.Unsupported{Origin: o, Kind: "document"}, true
	case m.Sticker != nil:
		return types.Unsupported{Origin: o, Kind: "sticker"}, true
	}
	return nil, false
}
