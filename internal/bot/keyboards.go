package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smartpro-bot/internal/lang"
	"smartpro-bot/internal/payments"
	"smartpro-bot/internal/store"
	"smartpro-bot/internal/types"
)

// KeyboardPolicy decides which replies carry the persistent reply keyboard.
type KeyboardPolicy string

const (
	// KeyboardAlways attaches the keyboard to every plain reply.
	KeyboardAlways KeyboardPolicy = "always"
	// KeyboardOnRequest attaches it only to /start and /help.
	KeyboardOnRequest KeyboardPolicy = "on_request"
)

// ParseKeyboardPolicy defaults to KeyboardAlways.
func ParseKeyboardPolicy(s string) KeyboardPolicy {
	if KeyboardPolicy(strings.ToLower(strings.TrimSpace(s))) == KeyboardOnRequest {
		return KeyboardOnRequest
	}
	return KeyboardAlways
}

// Callback data prefixes.
const (
	cbDepth      = "depth:"
	cbVoice      = "voice:"
	cbShow       = "show:transcript"
	cbSpeak      = "speak:last"
	cbPay        = "pay:"
	cbLang       = "lang:"
	checkmark    = "✓ "
	voiceOnData  = cbVoice + "on"
	voiceOffData = cbVoice + "off"
)

func replyKeyboard(t Texts) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(t.MenuButton)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func depthLabel(t Texts, d types.Depth) string {
	switch d {
	case types.DepthShort:
		return t.DepthShort
	case types.DepthMedium:
		return t.DepthMedium
	default:
		return t.DepthDeep
	}
}

// menuControls is the inline secondary control set of the menu message.
func menuControls(t Texts, s *store.Session) tgbotapi.InlineKeyboardMarkup {
	depthRow := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, d := range []types.Depth{types.DepthShort, types.DepthMedium, types.DepthDeep} {
		label := depthLabel(t, d)
		if s.Depth == d {
			label = checkmark + label
		}
		depthRow = append(depthRow, tgbotapi.NewInlineKeyboardButtonData(label, cbDepth+string(d)))
	}

	voice := tgbotapi.NewInlineKeyboardButtonData(t.VoiceOffButton, voiceOnData)
	if s.VoiceReplies {
		voice = tgbotapi.NewInlineKeyboardButtonData(t.VoiceOnButton, voiceOffData)
	}

	langRow := make([]tgbotapi.InlineKeyboardButton, 0, len(languageNames))
	for _, tag := range []string{lang.Russian, lang.English, lang.Hebrew} {
		label := languageNames[tag]
		if s.UILang == tag {
			label = checkmark + label
		}
		langRow = append(langRow, tgbotapi.NewInlineKeyboardButtonData(label, cbLang+tag))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		depthRow,
		tgbotapi.NewInlineKeyboardRow(voice),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.ShowTranscript, cbShow),
			tgbotapi.NewInlineKeyboardButtonData(t.SpeakLast, cbSpeak),
		),
		langRow,
	)
}

// languageNames are shown in their own script regardless of the UI language.
var languageNames = map[string]string{
	lang.Russian: "Русский",
	lang.English: "English",
	lang.Hebrew:  "עברית",
}

func planKeyboard(t Texts) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(payments.Plans))
	for _, p := range payments.Plans {
		label := fmt.Sprintf(t.PayButton, planTitle(p.Name), p.Amount)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbPay+p.Name),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func payLinkKeyboard(t Texts, url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(t.PayOpen, url)),
	)
}

func planTitle(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// collapsed removes every inline button from a message.
func collapsed() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}
