package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	// Redis обслуживает очередь доставки уведомлений и планировщик дайджестов
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	// Push - доступ к FCM; при пустом credentials_file отправка выключена
	Push struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"push"`

	JWT struct {
		Secret     string `yaml:"secret"`
		TTL        int    `yaml:"ttl"`         // минуты жизни access-токена
		RefreshTTL int    `yaml:"refresh_ttl"` // часы жизни refresh-токена
	} `yaml:"jwt"`

	Storage struct {
		Type       string `yaml:"type"`        // local, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For R2
		Region     string `yaml:"region"`      // For R2
		AccessKey  string `yaml:"access_key"`  // For R2
		SecretKey  string `yaml:"secret_key"`  // For R2
		Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
		UseSSL     bool   `yaml:"use_ssl"`     // For R2
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`      // Max file size in bytes
		AllowedTypes []string `yaml:"allowed_types"` // Allowed MIME types
	} `yaml:"upload"`

	// Tracker - публичные magic-link страницы
	Tracker struct {
		BaseURL string `yaml:"base_url"` // напр. https://tracker.example.com
	} `yaml:"tracker"`

	Digest struct {
		Cron string `yaml:"cron"` // расписание еженедельного дайджеста
	} `yaml:"digest"`

	Notify struct {
		SendTimeout int `yaml:"send_timeout"` // секунды на одну отправку
	} `yaml:"notify"`

	// Первый негоциатор создается при старте, если таблица users пуста от негоциаторов
	FirstNegotiatorEmail    string `yaml:"first_negotiator_email"`
	FirstNegotiatorName     string `yaml:"first_negotiator_name"`
	FirstNegotiatorPassword string `yaml:"first_negotiator_password"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml (режим НЕ-тест)")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		// Секреты первого запуска удобнее держать в окружении, чем в yaml
		if v := os.Getenv("FIRST_NEGOTIATOR_EMAIL"); v != "" {
			cfg.FirstNegotiatorEmail = v
		}
		if v := os.Getenv("FIRST_NEGOTIATOR_PASSWORD"); v != "" {
			cfg.FirstNegotiatorPassword = v
		}

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	log.Println("Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ (режим теста)")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.JWT.RefreshTTL = 24 * 7

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	cfg.Email.SMTPHost = "" // в тестах почта уходит в лог, не в SMTP
	cfg.Email.FromEmail = "noreply@shortsale.test"
	cfg.Email.FromName = "Short Sale Tracker"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.Upload.MaxSize = 25 * 1024 * 1024 // 25MB
	cfg.Upload.AllowedTypes = []string{
		"application/pdf",
		"image/jpeg", "image/png", "image/webp",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}

	cfg.Tracker.BaseURL = "http://localhost:3000/tracker"

	cfg.FirstNegotiatorEmail = os.Getenv("FIRST_NEGOTIATOR_EMAIL")
	cfg.FirstNegotiatorName = os.Getenv("FIRST_NEGOTIATOR_NAME")
	cfg.FirstNegotiatorPassword = os.Getenv("FIRST_NEGOTIATOR_PASSWORD")

	cfg.applyDefaults()
	AppConfig = &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 24 * 7
	}
	if cfg.Digest.Cron == "" {
		// пятница 17:00
		cfg.Digest.Cron = "0 17 * * 5"
	}
	if cfg.Notify.SendTimeout == 0 {
		cfg.Notify.SendTimeout = 5
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 25 * 1024 * 1024
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
