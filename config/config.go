package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name        string `envconfig:"APP_NAME"     default:"nibog"`
		Timezone    string `envconfig:"TIMEZONE"     default:"Asia/Kolkata"`
		FrontendURL string `envconfig:"FRONTEND_URL" default:"https://www.nibog.in"`
		CORS        struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool     `envconfig:"ENABLE"`
			MaxRequests   int      `envconfig:"MAX_REQUESTS"`
			WindowSeconds int      `envconfig:"WINDOW_SECONDS"`
			ExemptPaths   []string `envconfig:"EXEMPT_PATHS"   default:"/health,/v1/payments/phonepe/callback"`
		} `envconfig:"RATE_LIMITER"`
		APIKey string `envconfig:"API_KEY"`
	} `envconfig:"APP"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret     string `envconfig:"ACCESS_SECRET"`
		RefreshSecret    string `envconfig:"REFRESH_SECRET"`
		AccessExpireMin  int    `envconfig:"ACCESS_EXPIRE_MIN"`
		RefreshExpireMin int    `envconfig:"REFRESH_EXPIRE_MIN"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int    `envconfig:"MAX_RETRY"`
			RetryWaitTime  int    `envconfig:"RETRY_WAIT_TIME"`
			MigrationTable string `envconfig:"MIGRATION_TABLE"`
			AutoMigrate    bool   `envconfig:"AUTO_MIGRATE"`
			Prefix         string `envconfig:"PREFIX"`
			Read           struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				Timezone string `envconfig:"TIMEZONE"`
				SSLMode  string `envconfig:"SSL_MODE"`
			} `envconfig:"READ"`
			Write struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				Timezone string `envconfig:"TIMEZONE"`
				SSLMode  string `envconfig:"SSL_MODE"`
			} `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	// Backend is the upstream booking store (ai.nibog.in webhooks or BACKEND_URL).
	Backend struct {
		BaseURL             string `envconfig:"URL"                   default:"https://ai.nibog.in/webhook"`
		TimeoutSeconds      int    `envconfig:"TIMEOUT_SECONDS"       default:"10"`
		MaxRetry            int    `envconfig:"MAX_RETRY"             default:"3"`
		RetryInitialMillis  int    `envconfig:"RETRY_INITIAL_MILLIS"  default:"500"`
		RetryMaxElapsedSecs int    `envconfig:"RETRY_MAX_ELAPSED_SECS" default:"20"`
	} `envconfig:"BACKEND"`

	PhonePe struct {
		Env            string `envconfig:"ENV"             default:"sandbox"`
		BaseURL        string `envconfig:"BASE_URL"`
		MerchantID     string `envconfig:"MERCHANT_ID"`
		SaltKey        string `envconfig:"SALT_KEY"`
		SaltIndex      string `envconfig:"SALT_INDEX"      default:"1"`
		RedirectURL    string `envconfig:"REDIRECT_URL"`
		CallbackURL    string `envconfig:"CALLBACK_URL"`
		TimeoutSeconds int    `envconfig:"TIMEOUT_SECONDS" default:"15"`
	} `envconfig:"PHONEPE"`

	WhatsApp struct {
		Enabled                bool    `envconfig:"ENABLED"`
		BaseURL                string  `envconfig:"BASE_URL"                 default:"https://zaptra.in"`
		Token                  string  `envconfig:"TOKEN"`
		BookingTemplate        string  `envconfig:"BOOKING_TEMPLATE"         default:"booking_confirmation_latest"`
		TemplateLanguage       string  `envconfig:"TEMPLATE_LANGUAGE"        default:"en_US"`
		TimeoutSeconds         int     `envconfig:"TIMEOUT_SECONDS"          default:"10"`
		RatePerSecond          float64 `envconfig:"RATE_PER_SECOND"          default:"5"`
		Burst                  int     `envconfig:"BURST"                    default:"5"`
		MaxRetry               int     `envconfig:"MAX_RETRY"                default:"2"`
		BreakerFailures        uint32  `envconfig:"BREAKER_FAILURES"         default:"5"`
		BreakerCooldownSeconds int     `envconfig:"BREAKER_COOLDOWN_SECONDS" default:"60"`
	} `envconfig:"WHATSAPP"`

	Email struct {
		Enabled  bool   `envconfig:"ENABLED"`
		Host     string `envconfig:"HOST"`
		Port     int    `envconfig:"PORT"      default:"587"`
		Username string `envconfig:"USERNAME"`
		Password string `envconfig:"PASSWORD"`
		From     string `envconfig:"FROM"`
		FromName string `envconfig:"FROM_NAME" default:"NIBOG"`
		MaxRetry int    `envconfig:"MAX_RETRY" default:"3"`
	} `envconfig:"EMAIL"`

	Kafka struct {
		Brokers           []string `envconfig:"BROKERS"`
		ConsumerGroup     string   `envconfig:"CONSUMER_GROUP"     default:"nibog-notification"`
		NotificationTopic string   `envconfig:"NOTIFICATION_TOPIC" default:"booking.confirmed"`
		SASL              struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	Queue struct {
		RedisDB     int `envconfig:"REDIS_DB"    default:"1"`
		Concurrency int `envconfig:"CONCURRENCY" default:"5"`
	} `envconfig:"QUEUE"`

	Booking struct {
		PendingTTLMinutes     int `envconfig:"PENDING_TTL_MINUTES"      default:"30"`
		ExpiryGraceMinutes    int `envconfig:"EXPIRY_GRACE_MINUTES"     default:"30"`
		ConfirmationTTLHours  int `envconfig:"CONFIRMATION_TTL_HOURS"   default:"24"`
		ConfirmLockTTLSeconds int `envconfig:"CONFIRM_LOCK_TTL_SECONDS" default:"60"`
		ReconcileMaxAttempts  int `envconfig:"RECONCILE_MAX_ATTEMPTS"   default:"5"`
		ReconcileDelaySeconds int `envconfig:"RECONCILE_DELAY_SECONDS"  default:"60"`
	} `envconfig:"BOOKING"`

	Admin struct {
		Email        string `envconfig:"EMAIL"`
		PasswordHash string `envconfig:"PASSWORD_HASH"`
	} `envconfig:"ADMIN"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		S3 struct {
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		err = godotenv.Load(".env")
		if err != nil {
			log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		err = envconfig.Process("", &conf)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to process environment variables")
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize configuration")
		}
	}

	return &conf
}
