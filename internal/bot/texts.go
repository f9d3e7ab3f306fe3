package bot

import (
	"strings"

	"smartpro-bot/internal/lang"
)

// Texts is the UI copy of one language. Format verbs are noted per field.
type Texts struct {
	Welcome          string
	Menu             string
	Help             string
	UnknownCommand   string
	AlreadyAnswered  string
	Unsupported      string
	TempError        string
	VoiceUnavailable string
	NoTranscript     string
	Transcript       string // %s transcript
	NoAnswer         string
	Version          string // %s build
	Referral         string // %s link
	Tariffs          string
	PayChoose        string
	PayLink          string // %s plan
	PayUnavailable   string
	PayFailed        string
	PayPaid          string // %s plan
	Requests         string // %d answered requests

	MenuButton     string
	DepthShort     string
	DepthMedium    string
	DepthDeep      string
	VoiceOnButton  string
	VoiceOffButton string
	ShowTranscript string
	SpeakLast      string
	PayButton      string // %s plan, %s amount
	PayOpen        string

	DepthSet string // %s depth label
	VoiceOn  string
	VoiceOff string
	Done     string
}

var texts = map[string]Texts{
	lang.Russian: {
		Welcome:          "Здравствуйте! Я SmartPro 24/7. Напишите тему или отправьте голосовое сообщение, и я подготовлю структурированный ответ одним сообщением.\n\nКнопка «Меню» открывает настройки.",
		Menu:             "Меню SmartPro 24/7.\n\nОтправьте тему текстом или голосом. Ниже можно выбрать глубину ответа, включить озвучку, посмотреть расшифровку последнего голосового или прослушать последний ответ.\n\nКоманды: /start, /menu, /help, /pay, /ref, /version",
		Help:             "Я отвечаю на любую тему структурированно: контекст, карта темы, практические шаги, риски, советы и чек-лист. Глубина ответа и озвучка настраиваются в /menu.",
		UnknownCommand:   "Такой команды нет. Откройте /menu, чтобы увидеть доступные действия.",
		AlreadyAnswered:  "Этот вопрос уже получил ответ выше.",
		Unsupported:      "Я обрабатываю только текст и голосовые сообщения.",
		TempError:        "Временная ошибка. Пожалуйста, повторите запрос.",
		VoiceUnavailable: "Озвучка сейчас недоступна, текстовый ответ выше остаётся актуальным.",
		NoTranscript:     "Расшифровка недоступна.",
		Transcript:       "Расшифровка: %s",
		NoAnswer:         "Пока нечего озвучивать. Сначала задайте вопрос.",
		Version:          "Версия: %s",
		Referral:         "Ваша реферальная ссылка: %s",
		Tariffs:          "Тарифы SmartPro 24/7:\nBasic: 10 USD\nPro: 20 USD\nMax: 50 USD",
		PayChoose:        "Выберите тариф для оплаты через PayPal.",
		PayLink:          "Счёт на тариф %s создан. Оплатите по кнопке ниже.",
		PayUnavailable:   "Онлайн-оплата сейчас не подключена.",
		PayFailed:        "Не удалось создать счёт. Попробуйте позже.",
		PayPaid:          "Оплата тарифа %s получена. Спасибо!",
		Requests:         "Обработано запросов: %d",
		MenuButton:       "Меню",
		DepthShort:       "Кратко",
		DepthMedium:      "Средне",
		DepthDeep:        "Глубоко",
		VoiceOnButton:    "Озвучка: вкл",
		VoiceOffButton:   "Озвучка: выкл",
		ShowTranscript:   "Показать расшифровку",
		SpeakLast:        "Озвучить последний ответ",
		PayButton:        "%s: %s USD",
		PayOpen:          "Оплатить",
		DepthSet:         "Глубина: %s",
		VoiceOn:          "Озвучка включена",
		VoiceOff:         "Озвучка выключена",
		Done:             "Готово",
	},
	lang.English: {
		Welcome:          "Hello! I am SmartPro 24/7. Send a topic as text or a voice note and I will prepare a structured answer in a single message.\n\nThe Menu button opens the settings.",
		Menu:             "SmartPro 24/7 menu.\n\nSend a topic as text or voice. Below you can choose the answer depth, switch voice replies, reveal the transcript of your last voice note or listen to the last answer.\n\nCommands: /start, /menu, /help, /pay, /ref, /version",
		Help:             "I answer any topic in a structured way: context, topic map, practical steps, risks, advice and a checklist. Answer depth and voice replies are set in /menu.",
		UnknownCommand:   "Unknown command. Open /menu to see what I can do.",
		AlreadyAnswered:  "This question has already been answered above.",
		Unsupported:      "I only process text and voice messages.",
		TempError:        "Temporary error. Please try again.",
		VoiceUnavailable: "Voice is unavailable right now, the text answer above is still valid.",
		NoTranscript:     "No transcript available.",
		Transcript:       "Transcript: %s",
		NoAnswer:         "Nothing to read out yet. Ask a question first.",
		Version:          "Version: %s",
		Referral:         "Your referral link: %s",
		Tariffs:          "SmartPro 24/7 plans:\nBasic: 10 USD\nPro: 20 USD\nMax: 50 USD",
		PayChoose:        "Choose a plan to pay with PayPal.",
		PayLink:          "An invoice for the %s plan is ready. Pay with the button below.",
		PayUnavailable:   "Online payment is not connected yet.",
		PayFailed:        "Could not create the invoice. Please try later.",
		PayPaid:          "Payment for the %s plan received. Thank you!",
		Requests:         "Answered requests: %d",
		MenuButton:       "Menu",
		DepthShort:       "Short",
		DepthMedium:      "Medium",
		DepthDeep:        "Deep",
		VoiceOnButton:    "Voice: on",
		VoiceOffButton:   "Voice: off",
		ShowTranscript:   "Show transcript",
		SpeakLast:        "Read last answer",
		PayButton:        "%s: %s USD",
		PayOpen:          "Pay",
		DepthSet:         "Depth: %s",
		VoiceOn:          "Voice replies on",
		VoiceOff:         "Voice replies off",
		Done:             "Done",
	},
	lang.Hebrew: {
		Welcome:          "שלום! אני SmartPro 24/7. שלחו נושא בטקסט או בהודעה קולית ואכין תשובה מובנית בהודעה אחת.\n\nכפתור התפריט פותח את ההגדרות.",
		Menu:             "תפריט SmartPro 24/7.\n\nשלחו נושא בטקסט או בקול. למטה אפשר לבחור את עומק התשובה, להפעיל הקראה, להציג את תמלול ההודעה הקולית האחרונה או להאזין לתשובה האחרונה.\n\nפקודות: /start, /menu, /help, /pay, /ref, /version",
		Help:             "אני עונה על כל נושא בצורה מובנית: הקשר, מפת הנושא, צעדים מעשיים, סיכונים, עצות ורשימת פעולות. את עומק התשובה וההקראה מגדירים ב־/menu.",
		UnknownCommand:   "פקודה לא מוכרת. פתחו את /menu כדי לראות מה אפשר לעשות.",
		AlreadyAnswered:  "על השאלה הזאת כבר נענתה תשובה למעלה.",
		Unsupported:      "אני מטפל רק בהודעות טקסט וקול.",
		TempError:        "שגיאה זמנית. נסו שוב.",
		VoiceUnavailable: "ההקראה אינה זמינה כרגע, תשובת הטקסט למעלה עדיין בתוקף.",
		NoTranscript:     "אין תמלול זמין.",
		Transcript:       "תמלול: %s",
		NoAnswer:         "עדיין אין מה להקריא. שאלו שאלה קודם.",
		Version:          "גרסה: %s",
		Referral:         "קישור ההפניה שלכם: %s",
		Tariffs:          "מסלולי SmartPro 24/7:\nBasic: 10 USD\nPro: 20 USD\nMax: 50 USD",
		PayChoose:        "בחרו מסלול לתשלום ב־PayPal.",
		PayLink:          "נוצרה חשבונית למסלול %s. שלמו בכפתור למטה.",
		PayUnavailable:   "התשלום המקוון עדיין לא מחובר.",
		PayFailed:        "לא ניתן ליצור חשבונית. נסו מאוחר יותר.",
		PayPaid:          "התשלום עבור מסלול %s התקבל. תודה!",
		Requests:         "בקשות שנענו: %d",
		MenuButton:       "תפריט",
		DepthShort:       "קצר",
		DepthMedium:      "בינוני",
		DepthDeep:        "מעמיק",
		VoiceOnButton:    "הקראה: פועלת",
		VoiceOffButton:   "הקראה: כבויה",
		ShowTranscript:   "הצג תמלול",
		SpeakLast:        "הקרא תשובה אחרונה",
		PayButton:        "%s: %s USD",
		PayOpen:          "לתשלום",
		DepthSet:         "עומק: %s",
		VoiceOn:          "ההקראה הופעלה",
		VoiceOff:         "ההקראה כובתה",
		Done:             "בוצע",
	},
}

// TextsFor returns the UI copy for tag, defaulting to Russian.
func TextsFor(tag string) Texts {
	if t, ok := texts[tag]; ok {
		return t
	}
	return texts[lang.Default]
}

// isMenuKeyword matches the menu button label of any language.
func isMenuKeyword(s string) bool {
	s = strings.TrimSpace(s)
	for _, t := range texts {
		if strings.EqualFold(s, t.MenuButton) {
			return true
		}
	}
	return false
}
