package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"smartpro-bot/internal/answer"
	"smartpro-bot/internal/bot"
	"smartpro-bot/internal/config"
	"smartpro-bot/internal/db"
	"smartpro-bot/internal/logging"
	"smartpro-bot/internal/payments"
	"smartpro-bot/internal/server"
	"smartpro-bot/internal/store"
	"smartpro-bot/internal/version"
	"smartpro-bot/internal/voice"
)

func main() {
	cfg, cfgErr := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger = zap.NewExample()
	}
	defer func() { _ = logger.Sync() }()
	if cfgErr != nil {
		logger.Fatal("invalid configuration", zap.Error(cfgErr))
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("failed to connect to Telegram", zap.Error(err))
	}
	logger.Info("authorized on Telegram", zap.String("bot", api.Self.UserName))

	sessions, err := newSessionStore(cfg)
	if err != nil {
		logger.Fatal("failed to create session store", zap.String("kind", cfg.SessionStore), zap.Error(err))
	}
	defer sessions.Close()

	var client *openai.Client
	if cfg.OpenAIAPIKey != "" {
		client = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		logger.Warn("OPENAI_API_KEY is not set; answers use the built-in templates and voice is off")
	}

	catalog, err := answer.LoadCatalog(cfg.PromptsFile)
	if err != nil {
		logger.Fatal("failed to load answer catalogue", zap.String("path", cfg.PromptsFile), zap.Error(err))
	}
	var completer answer.Completer
	if client != nil {
		completer = answer.NewOpenAICompleter(client, cfg.Model)
	}
	gen := answer.NewGenerator(catalog,
		answer.NewLLMProvider(catalog, completer, answer.WordRange{Min: cfg.ProMinWords, Max: cfg.ProMaxWords}),
		answer.WithTimeout(cfg.GenerationTimeout),
		answer.WithLogger(logger.Named("answer")),
	)

	pipeline := voice.NewPipeline(api, voiceOptions(cfg, client, logger)...)

	routerOpts := []bot.Option{
		bot.WithVoice(pipeline),
		bot.WithLogger(logger.Named("bot")),
	}
	serverOpts := []server.Option{server.WithLogger(logger.Named("http"))}
	if h, ok := sessions.(server.HealthChecker); ok {
		serverOpts = append(serverOpts, server.WithHealthCheck("redis", h))
	}

	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL, logger.Named("db"))
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer database.Close()
		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
		err = database.Migrate(migrateCtx)
		cancelMigrate()
		if err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		usage := store.NewUsageStore(database)
		routerOpts = append(routerOpts, bot.WithLedger(usage))
		serverOpts = append(serverOpts, server.WithPaymentLedger(usage), server.WithHealthCheck("db", database))
	} else {
		logger.Info("DB_URL not provided, usage ledger disabled")
	}

	var paypal *payments.PayPal
	if cfg.PayPalEnabled() {
		paypal = payments.New(payments.Config{
			ClientID:  cfg.PayPalClientID,
			Secret:    cfg.PayPalSecret,
			BaseURL:   payments.BaseURL(cfg.PayPalMode),
			ReturnURL: cfg.BaseURL + "/pay/return",
			CancelURL: cfg.BaseURL + "/pay/cancel",
		})
		routerOpts = append(routerOpts, bot.WithCheckout(paypal))
	}

	router := bot.NewRouter(api, sessions, gen, bot.Config{
		BotUsername: api.Self.UserName,
		Version:     version.Version,
		Keyboard:    bot.ParseKeyboardPolicy(cfg.MenuKeyboard),
		Collapse:    cfg.MenuCollapse,
		Hysteresis:  cfg.LangHysteresis,
		VoiceInput:  cfg.VoiceInput,
		CacheTTL:    cfg.SessionCacheTTL,
	}, routerOpts...)
	if paypal != nil {
		serverOpts = append(serverOpts, server.WithCheckout(paypal, router))
	}

	dispatcher := server.NewDispatcher(router, server.WithDispatchLogger(logger.Named("dispatch")))
	srv := server.NewServer(server.Config{
		WebhookPath:   cfg.WebhookPath,
		Secret:        cfg.Secret,
		Version:       version.Version,
		AllowedOrigin: cfg.AllowedOrigin,
	}, dispatcher, serverOpts...)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("SmartPro server listening",
			zap.String("addr", httpServer.Addr),
			zap.String("webhook_path", cfg.WebhookPath),
			zap.String("version", version.Version),
			zap.String("session_store", cfg.SessionStore),
			zap.Bool("llm", completer != nil),
			zap.Bool("stt", pipeline.CanTranscribe()),
			zap.Bool("tts", pipeline.CanSynthesize()),
			zap.Bool("paypal", paypal.Enabled()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Warn("in-flight updates abandoned", zap.Error(err))
	}
}

func newSessionStore(cfg config.Config) (store.Store, error) {
	opts := []store.Option{store.WithSessionTTL(cfg.SessionTTL)}
	if store.Kind(cfg.SessionStore) == store.KindRedis {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		opts = append(opts, store.WithRedisClient(client))
	}
	return store.NewStore(store.Kind(cfg.SessionStore), opts...)
}

// voiceOptions prefers ElevenLabs for speech when it is configured and
// OpenAI otherwise. Without ffmpeg no voice notes are produced.
func voiceOptions(cfg config.Config, client *openai.Client, logger *zap.Logger) []voice.Option {
	opts := []voice.Option{
		voice.WithDownloader(voice.NewDownloader(cfg.DownloadTimeout, 0)),
		voice.WithTimeouts(cfg.STTTimeout, cfg.TTSTimeout),
		voice.WithMaxChars(cfg.TTSMaxChars),
		voice.WithLogger(logger.Named("voice")),
	}
	if client != nil && cfg.VoiceInput {
		opts = append(opts, voice.WithTranscriber(voice.NewOpenAITranscriber(client, cfg.STTModel)))
	}
	switch {
	case cfg.ElevenAPIKey != "" && cfg.ElevenVoiceID != "":
		opts = append(opts, voice.WithSynthesizer(voice.NewElevenLabs(cfg.ElevenAPIKey, cfg.ElevenVoiceID, cfg.ElevenModel)))
	case client != nil:
		opts = append(opts, voice.WithSynthesizer(voice.NewOpenAISpeech(client, cfg.TTSModel, cfg.TTSVoice)))
	}

	ff := voice.NewFFmpeg(cfg.FFmpegPath)
	if err := ff.Available(); err != nil {
		logger.Warn("ffmpeg not found, voice replies disabled", zap.String("path", cfg.FFmpegPath), zap.Error(err))
		return opts
	}
	return append(opts, voice.WithTranscoder(ff))
}
