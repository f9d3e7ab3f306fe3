// Package bot routes Telegram events to the answer generator, the voice
// pipeline and the menu controls.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smartpro-bot/internal/answer"
	"smartpro-bot/internal/lang"
	"smartpro-bot/internal/payments"
	"smartpro-bot/internal/store"
	"smartpro-bot/internal/trace"
	"smartpro-bot/internal/types"
)

// EchoWindow is how long a handled voice transcript blocks an identical text.
const EchoWindow = 15 * time.Second

const defaultCacheTTL = 10 * time.Minute

// BotAPI is the subset of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Answerer interface {
	Generate(ctx context.Context, req answer.Request) string
}

type Voice interface {
	Transcribe(ctx context.Context, fileID string) string
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

type Checkout interface {
	Enabled() bool
	CreateOrder(ctx context.Context, plan string, chatID int64) (payments.Order, error)
}

// Ledger records usage. Failures never affect replies.
type Ledger interface {
	RecordRequest(ctx context.Context, chatID, userID int64) error
	Requests(ctx context.Context, chatID int64) (int, error)
	RecordPayment(ctx context.Context, p store.Payment) error
}

type Config struct {
	BotUsername string
	Version     string
	Keyboard    KeyboardPolicy
	// Collapse removes the inline controls after a selection.
	Collapse   bool
	Hysteresis bool
	VoiceInput bool
	CacheTTL   time.Duration
}

type Router struct {
	api      BotAPI
	sessions store.Store
	gen      Answerer
	voice    Voice
	checkout Checkout
	ledger   Ledger
	cfg      Config
	logger   *zap.Logger
}

type Option func(*Router)

func WithVoice(v Voice) Option       { return func(r *Router) { r.voice = v } }
func WithCheckout(c Checkout) Option { return func(r *Router) { r.checkout = c } }
func WithLedger(l Ledger) Option     { return func(r *Router) { r.ledger = l } }

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRouter(api BotAPI, sessions store.Store, gen Answerer, cfg Config, opts ...Option) *Router {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Keyboard == "" {
		cfg.Keyboard = KeyboardAlways
	}
	r := &Router{
		api:      api,
		sessions: sessions,
		gen:      gen,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one event. It never panics and sends at most one text
// reply, plus an optional voice follow-up.
func (r *Router) Handle(ctx context.Context, ev types.Event) {
	chatID := ev.Chat()
	log := r.logger.With(zap.Int64("chat_id", chatID), zap.String("trace_id", trace.FromContext(ctx)))

	// h sends through a tracker so a late failure does not add a second reply.
	tracker := &replyTracker{BotAPI: r.api}
	h := *r
	h.api = tracker

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while handling update", zap.Any("panic", rec), zap.Stack("stack"))
			if !tracker.replied() {
				h.fail(ctx, chatID)
			}
		}
	}()

	var err error
	switch e := ev.(type) {
	case types.Command:
		err = h.onCommand(ctx, e)
	case types.TextMessage:
		err = h.onText(ctx, e)
	case types.VoiceMessage:
		err = h.onVoice(ctx, e)
	case types.ButtonTap:
		err = h.onTap(ctx, e)
	case types.Unsupported:
		err = h.onUnsupported(ctx, e)
	default:
		log.Warn("unhandled event", zap.String("type", fmt.Sprintf("%T", ev)))
		return
	}
	if err != nil {
		log.Error("handle update failed", zap.Error(err))
		if !tracker.replied() {
			h.fail(ctx, chatID)
		}
	}
}

// replyTracker records whether a text message went out.
type replyTracker struct {
	BotAPI
	sent bool
}

func (t *replyTracker) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := t.BotAPI.Send(c)
	if _, ok := c.(tgbotapi.MessageConfig); ok && err == nil {
		t.sent = true
	}
	return m, err
}

func (t *replyTracker) replied() bool { return t.sent }

// ---- Events ----

func (r *Router) onCommand(ctx context.Context, c types.Command) error {
	sess := r.session(ctx, c.ChatID)
	t := TextsFor(sess.InterfaceLang())

	switch strings.ToLower(c.Name) {
	case "start":
		if ref := strings.TrimPrefix(c.Args, "ref_"); ref != c.Args && ref != "" {
			r.logger.Info("referral start", zap.Int64("chat_id", c.ChatID), zap.String("referrer", ref))
		}
		return r.send(c.ChatID, t.Welcome, replyKeyboard(t))
	case "menu":
		return r.sendMenu(sess, t)
	case "help":
		return r.send(c.ChatID, t.Help, replyKeyboard(t))
	case "version":
		return r.reply(c.ChatID, t, fmt.Sprintf(t.Version, r.cfg.Version))
	case "ref":
		link := fmt.Sprintf("https://t.me/%s?start=ref_%d", r.cfg.BotUsername, c.UserID)
		return r.reply(c.ChatID, t, fmt.Sprintf(t.Referral, link))
	case "pay":
		return r.sendTariffs(ctx, c.ChatID, t)
	default:
		return r.reply(c.ChatID, t, t.UnknownCommand)
	}
}

func (r *Router) onText(ctx context.Context, m types.TextMessage) error {
	text := strings.TrimSpace(m.Text)
	sess := r.session(ctx, m.ChatID)
	t := TextsFor(sess.InterfaceLang())

	if isMenuKeyword(text) {
		return r.sendMenu(sess, t)
	}
	if r.isEcho(ctx, m.ChatID, text) {
		return r.reply(m.ChatID, t, t.AlreadyAnswered)
	}
	l := sess.Lang.Observe(text, r.cfg.Hysteresis)
	return r.answer(ctx, sess, m.Origin, text, l)
}

func (r *Router) onVoice(ctx context.Context, m types.VoiceMessage) error {
	sess := r.session(ctx, m.ChatID)

	transcript := ""
	if r.cfg.VoiceInput && r.voice != nil {
		r.typing(m.ChatID)
		transcript = r.voice.Transcribe(ctx, m.FileID)
	}

	l := sess.Lang.Current()
	if transcript != "" {
		l = sess.Lang.Observe(transcript, r.cfg.Hysteresis)
		r.put(ctx, m.ChatID, store.KeyTranscript, transcript, r.cfg.CacheTTL)
		r.put(ctx, m.ChatID, store.KeyEchoGuard, normalizeEcho(transcript), EchoWindow)
	} else {
		r.evict(ctx, m.ChatID, store.KeyTranscript)
	}
	// A blank topic makes the generator use its placeholder.
	return r.answer(ctx, sess, m.Origin, transcript, l)
}

func (r *Router) onTap(ctx context.Context, tap types.ButtonTap) error {
	sess := r.session(ctx, tap.ChatID)
	t := TextsFor(sess.InterfaceLang())
	data := tap.Data

	switch {
	case strings.HasPrefix(data, cbDepth):
		sess.Depth = types.ParseDepth(strings.TrimPrefix(data, cbDepth))
		r.save(ctx, sess)
		r.answerCallback(tap.CallbackID, fmt.Sprintf(t.DepthSet, depthLabel(t, sess.Depth)))
		r.afterSelection(tap, menuControls(t, sess))
		return nil

	case data == voiceOnData || data == voiceOffData:
		sess.VoiceReplies = data == voiceOnData
		r.save(ctx, sess)
		toast := t.VoiceOff
		if sess.VoiceReplies {
			toast = t.VoiceOn
		}
		r.answerCallback(tap.CallbackID, toast)
		r.afterSelection(tap, menuControls(t, sess))
		return nil

	case strings.HasPrefix(data, cbLang):
		if tag := strings.TrimPrefix(data, cbLang); lang.Supported(tag) {
			sess.UILang = tag
			r.save(ctx, sess)
			t = TextsFor(tag)
		}
		r.answerCallback(tap.CallbackID, t.Done)
		r.afterSelection(tap, menuControls(t, sess))
		return nil

	case data == cbShow:
		r.answerCallback(tap.CallbackID, "")
		r.afterSelection(tap, menuControls(t, sess))
		text := t.NoTranscript
		if v, ok := r.lookup(ctx, tap.ChatID, store.KeyTranscript); ok {
			text = fmt.Sprintf(t.Transcript, v)
		}
		return r.reply(tap.ChatID, t, text)

	case data == cbSpeak:
		r.answerCallback(tap.CallbackID, "")
		r.afterSelection(tap, menuControls(t, sess))
		return r.speakLast(ctx, sess, t)

	case strings.HasPrefix(data, cbPay):
		r.answerCallback(tap.CallbackID, "")
		r.afterSelection(tap, planKeyboard(t))
		return r.startPayment(ctx, tap, strings.TrimPrefix(data, cbPay), t)

	default:
		r.logger.Debug("unknown callback data", zap.String("data", data))
		r.answerCallback(tap.CallbackID, "")
		return nil
	}
}

func (r *Router) onUnsupported(ctx context.Context, u types.Unsupported) error {
	sess := r.session(ctx, u.ChatID)
	t := TextsFor(sess.InterfaceLang())
	r.logger.Debug("unsupported message", zap.Int64("chat_id", u.ChatID), zap.String("kind", u.Kind))
	return r.reply(u.ChatID, t, t.Unsupported)
}

// NotifyPayment tells the chat that a captured payment arrived.
func (r *Router) NotifyPayment(ctx context.Context, c payments.Capture) {
	if c.ChatID == 0 {
		return
	}
	sess := r.session(ctx, c.ChatID)
	t := TextsFor(sess.InterfaceLang())
	if err := r.reply(c.ChatID, t, fmt.Sprintf(t.PayPaid, planTitle(c.Plan))); err != nil {
		r.logger.Warn("payment notice failed", zap.Int64("chat_id", c.ChatID), zap.Error(err))
	}
}

// ---- Answers ----

func (r *Router) answer(ctx context.Context, sess *store.Session, o types.Origin, topic, l string) error {
	r.typing(sess.ChatID)
	text := r.gen.Generate(ctx, answer.Request{Topic: topic, Depth: sess.Depth, Lang: l})

	t := TextsFor(sess.InterfaceLang())
	if err := r.reply(sess.ChatID, t, text); err != nil {
		r.save(ctx, sess)
		return err
	}
	r.save(ctx, sess)
	r.put(ctx, sess.ChatID, store.KeyAnswer, text, r.cfg.CacheTTL)
	r.evict(ctx, sess.ChatID, store.KeyAudio)
	r.recordRequest(ctx, o)

	if sess.VoiceReplies {
		r.speak(ctx, sess.ChatID, text, l, t)
	}
	return nil
}

func (r *Router) speakLast(ctx context.Context, sess *store.Session, t Texts) error {
	if ogg, ok := r.lookup(ctx, sess.ChatID, store.KeyAudio); ok {
		return r.sendVoice(sess.ChatID, []byte(ogg))
	}
	text, ok := r.lookup(ctx, sess.ChatID, store.KeyAnswer)
	if !ok {
		return r.reply(sess.ChatID, t, t.NoAnswer)
	}
	r.speak(ctx, sess.ChatID, text, sess.Lang.Current(), t)
	return nil
}

// speak sends a voice note of text or a single unavailable notice.
func (r *Router) speak(ctx context.Context, chatID int64, text, l string, t Texts) {
	log := r.logger.With(zap.Int64("chat_id", chatID))
	if r.voice == nil {
		r.notice(chatID, t, t.VoiceUnavailable)
		return
	}
	ogg, err := r.voice.Synthesize(ctx, text, l)
	if err != nil {
		log.Warn("voice synthesis failed", zap.Error(err))
		r.notice(chatID, t, t.VoiceUnavailable)
		return
	}
	r.put(ctx, chatID, store.KeyAudio, string(ogg), r.cfg.CacheTTL)
	if err := r.sendVoice(chatID, ogg); err != nil {
		log.Warn("send voice failed", zap.Error(err))
	}
}

// ---- Payments ----

func (r *Router) sendTariffs(ctx context.Context, chatID int64, t Texts) error {
	text := t.Tariffs
	if r.ledger != nil {
		if n, err := r.ledger.Requests(ctx, chatID); err != nil {
			r.logger.Warn("read usage failed", zap.Int64("chat_id", chatID), zap.Error(err))
		} else {
			text += "\n\n" + fmt.Sprintf(t.Requests, n)
		}
	}
	if r.checkout == nil || !r.checkout.Enabled() {
		return r.reply(chatID, t, text)
	}
	return r.send(chatID, text+"\n\n"+t.PayChoose, planKeyboard(t))
}

func (r *Router) startPayment(ctx context.Context, tap types.ButtonTap, plan string, t Texts) error {
	if r.checkout == nil || !r.checkout.Enabled() {
		return r.reply(tap.ChatID, t, t.PayUnavailable)
	}
	order, err := r.checkout.CreateOrder(ctx, plan, tap.ChatID)
	if err != nil {
		r.logger.Warn("create payment order failed", zap.Int64("chat_id", tap.ChatID), zap.String("plan", plan), zap.Error(err))
		return r.reply(tap.ChatID, t, t.PayFailed)
	}
	if r.ledger != nil {
		p := store.Payment{
			OrderID:  order.ID,
			ChatID:   tap.ChatID,
			Plan:     order.Plan.Name,
			Amount:   order.Plan.Amount,
			Currency: "USD",
			Status:   order.Status,
		}
		if err := r.ledger.RecordPayment(ctx, p); err != nil {
			r.logger.Warn("record payment failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	return r.send(tap.ChatID, fmt.Sprintf(t.PayLink, planTitle(order.Plan.Name)), payLinkKeyboard(t, order.ApproveURL))
}

// ---- Helpers ----

func (r *Router) sendMenu(sess *store.Session, t Texts) error {
	return r.send(sess.ChatID, t.Menu, menuControls(t, sess))
}

// reply sends a plain reply, attaching the reply keyboard per policy.
func (r *Router) reply(chatID int64, t Texts, text string) error {
	if r.cfg.Keyboard == KeyboardAlways {
		return r.send(chatID, text, replyKeyboard(t))
	}
	return r.send(chatID, text, nil)
}

func (r *Router) send(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// notice is a best-effort follow-up after the main reply was sent.
func (r *Router) notice(chatID int64, t Texts, text string) {
	if err := r.reply(chatID, t, text); err != nil {
		r.logger.Warn("send notice failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendVoice(chatID int64, ogg []byte) error {
	v := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "answer.ogg", Bytes: ogg})
	if _, err := r.api.Send(v); err != nil {
		return fmt.Errorf("send voice: %w", err)
	}
	return nil
}

func (r *Router) fail(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	t := TextsFor(r.session(ctx, chatID).InterfaceLang())
	if err := r.send(chatID, t.TempError, nil); err != nil {
		r.logger.Warn("send error reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) typing(chatID int64) {
	_, _ = r.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (r *Router) answerCallback(id, text string) {
	if id == "" {
		return
	}
	if _, err := r.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.logger.Debug("answer callback failed", zap.Error(err))
	}
}

// afterSelection collapses or refreshes the inline controls of the tapped message.
func (r *Router) afterSelection(tap types.ButtonTap, refreshed tgbotapi.InlineKeyboardMarkup) {
	if tap.MessageID == 0 {
		return
	}
	markup := refreshed
	if r.cfg.Collapse {
		markup = collapsed()
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(tap.ChatID, tap.MessageID, markup)
	if _, err := r.api.Request(edit); err != nil {
		r.logger.Debug("edit reply markup failed", zap.Error(err))
	}
}

// session never fails: store errors degrade to a default session.
func (r *Router) session(ctx context.Context, chatID int64) *store.Session {
	s, err := r.sessions.Get(ctx, chatID)
	if err != nil {
		r.logger.Warn("load session failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return store.NewSession(chatID)
	}
	return s
}

func (r *Router) save(ctx context.Context, s *store.Session) {
	if err := r.sessions.Save(ctx, s); err != nil {
		r.logger.Warn("save session failed", zap.Int64("chat_id", s.ChatID), zap.Error(err))
	}
}

func (r *Router) put(ctx context.Context, chatID int64, key store.CacheKey, value string, ttl time.Duration) {
	if err := r.sessions.Put(ctx, chatID, key, []byte(value), ttl); err != nil {
		r.logger.Warn("cache put failed", zap.Int64("chat_id", chatID), zap.String("key", string(key)), zap.Error(err))
	}
}

func (r *Router) lookup(ctx context.Context, chatID int64, key store.CacheKey) (string, bool) {
	v, ok, err := r.sessions.Lookup(ctx, chatID, key)
	if err != nil {
		r.logger.Warn("cache lookup failed", zap.Int64("chat_id", chatID), zap.String("key", string(key)), zap.Error(err))
		return "", false
	}
	return string(v), ok
}

func (r *Router) evict(ctx context.Context, chatID int64, key store.CacheKey) {
	if err := r.sessions.Evict(ctx, chatID, key); err != nil {
		r.logger.Warn("cache evict failed", zap.Int64("chat_id", chatID), zap.String("key", string(key)), zap.Error(err))
	}
}

func (r *Router) recordRequest(ctx context.Context, o types.Origin) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.RecordRequest(ctx, o.ChatID, o.UserID); err != nil {
		r.logger.Warn("record usage failed", zap.Int64("chat_id", o.ChatID), zap.Error(err))
	}
}

// isEcho consumes the echo guard when text repeats the last voice transcript.
func (r *Router) isEcho(ctx context.Context, chatID int64, text string) bool {
	norm := normalizeEcho(text)
	if norm == "" {
		return false
	}
	v, ok := r.lookup(ctx, chatID, store.KeyEchoGuard)
	if !ok || v != norm {
		return false
	}
	r.evict(ctx, chatID, store.KeyEchoGuard)
	return true
}

func normalizeEcho(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}
