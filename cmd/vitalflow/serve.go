package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalflow/internal/assistant"
	"vitalflow/internal/auth"
	"vitalflow/internal/cache"
	"vitalflow/internal/db"
	"vitalflow/internal/ledger"
	"vitalflow/internal/notify"
	"vitalflow/internal/otp"
	"vitalflow/internal/ratelimit"
	"vitalflow/internal/server"
	"vitalflow/internal/storage"
	"vitalflow/internal/store"
	"vitalflow/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if err := requireServeConfig(config); err != nil {
		return err
	}

	logger := newLogger(config)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	sharedCache, closeCache, err := newCache(ctx, config)
	if err != nil {
		return err
	}
	defer closeCache()

	donors := store.NewDonorRepository(pool)
	banks := store.NewBloodBankRepository(pool)
	camps := store.NewCampRepository(pool)
	donations := store.NewDonationRepository(pool)
	otps := store.NewOTPRepository(pool)
	chats := store.NewChatRepository(pool)

	limiter := ratelimit.New(sharedCache, config.RateLimitWindow, config.RateLimitMax)

	deps := server.Deps{
		Donors:     donors,
		BloodBanks: banks,
		Camps:      camps,
		Ledger:     ledger.NewService(donations, donors, camps, logger),
		OTP:        otp.NewService(otps, newNotifier(config, logger), logger),
		Issuer: auth.NewIssuer(auth.IssuerConfig{
			AccessSecret:  config.AccessTokenSecret,
			AccessTTL:     config.AccessTokenExpiry,
			RefreshSecret: config.RefreshTokenSecret,
			RefreshTTL:    config.RefreshTokenExpiry,
		}),
		Resolver: auth.NewResolver(donors, banks, camps),
		Limiter:  limiter,
	}

	if config.GeminiAPIKey != "" {
		gemini, err := assistant.NewGeminiClient(assistant.GeminiConfig{
			APIKey:            config.GeminiAPIKey,
			Model:             config.GeminiModel,
			BaseURL:           config.GeminiBaseURL,
			RequestsPerSecond: config.GeminiRequestsPerSec,
		}, logger)
		if err != nil {
			return err
		}

		deps.Assistant = assistant.NewService(assistant.Deps{
			Generator:  gemini,
			Chats:      chats,
			Banks:      banks,
			Camps:      camps,
			Donations:  donations,
			Donors:     donors,
			Cache:      sharedCache,
			ContextTTL: limiter.Window(),
			Logger:     logger,
		})
	} else {
		logger.Warn("GEMINI_API_KEY not set, chat assistant disabled")
	}

	if config.LicenseBucket != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}
		deps.Documents = storage.NewS3Storage(s3.NewFromConfig(awsConfig), config.LicenseBucket)
	} else {
		logger.Warn("LICENSE_BUCKET not set, license uploads disabled")
	}

	srv, err := server.New(config, logger, deps)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		errs <- srv.Start()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func newCache(ctx context.Context, config *types.Config) (cache.Cache, func(), error) {
	if config.CacheBackend == "redis" {
		r, err := cache.NewRedis(ctx, config.RedisURL, "vitalflow:")
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}

	m, err := cache.NewMemory(config.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return m, func() {}, nil
}

// newNotifier sends email over SMTP and SMS over Twilio when each is
// configured, and logs the message otherwise.
func newNotifier(config *types.Config, logger *logrus.Logger) *notify.Multi {
	logNotifier := notify.NewLogNotifier(logger)

	multi := &notify.Multi{Email: logNotifier, SMS: logNotifier}
	if config.SMTPHost != "" {
		multi.Email = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUsername,
			Password: config.SMTPPassword,
			From:     config.MailFrom,
		})
	} else {
		logger.Warn("SMTP_HOST not set, emails are logged instead of sent")
	}

	if config.TwilioAccountSID != "" {
		multi.SMS = notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: config.TwilioAccountSID,
			AuthToken:  config.TwilioAuthToken,
			From:       config.TwilioFromNumber,
		})
	} else {
		logger.Warn("TWILIO_ACCOUNT_SID not set, sms messages are logged instead of sent")
	}

	return multi
}
