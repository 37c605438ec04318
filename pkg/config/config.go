package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	Env string `envconfig:"ENV" default:"dev"`

	// DB
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres|mysql|sqlite
	DBDSN      string `envconfig:"DB_DSN" required:"true"`
	DBLogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`

	// JWT
	JWTSecret       string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin    int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`
	RefreshExpireHr int    `envconfig:"REFRESH_EXPIRE_HR" default:"720"`

	// Seeded on startup when both are set; admins cannot self-register.
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// RabbitMQ; empty URL disables event publishing
	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"nosmoke.exchange"`

	// Domain defaults
	DefaultPackPrice float64 `envconfig:"DEFAULT_PACK_PRICE" default:"25000"`
	CoachSlotMin     int     `envconfig:"COACH_SLOT_MIN" default:"60"`
	CoachDayStart    string  `envconfig:"COACH_DAY_START" default:"08:00"`
	CoachDayEnd      string  `envconfig:"COACH_DAY_END" default:"17:00"`

	// Observability
	OtelEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"otel-collector:4317"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile      string `envconfig:"LOG_FILE"`
}

// Notify is the notification worker's configuration.
type Notify struct {
	RabbitURL string   `envconfig:"RABBIT_URL" required:"true"`
	Exchanges []string `envconfig:"NOTIFY_EXCHANGES" default:"nosmoke.exchange"`
	Queue     string   `envconfig:"NOTIFY_QUEUE" default:"notification.q"`
	Bindings  []string `envconfig:"NOTIFY_BINDINGS" default:"appointment.*,checkin.*"`
	Prefetch  int      `envconfig:"NOTIFY_PREFETCH" default:"16"`
	DLXName   string   `envconfig:"NOTIFY_DLX" default:"notification.dlx"`
	DLXQueue  string   `envconfig:"NOTIFY_DLQ" default:"notification.q.dlq"`
	LogLevel  string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFile   string   `envconfig:"LOG_FILE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (App, error) {
	_ = godotenv.Load()
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

func LoadNotify() (Notify, error) {
	_ = godotenv.Load()
	var c Notify
	err := envconfig.Process("", &c)
	return c, err
}
