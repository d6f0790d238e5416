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

	// Mailbox is the IMAP account that receives forwarded school mail.
	Mailbox struct {
		Server       string `yaml:"server"` // host:port, TLS
		Username     string `yaml:"username"`
		Password     string `yaml:"password"`
		Folder       string `yaml:"folder"`
		LookbackMins int    `yaml:"lookback_minutes"` // unseen-search window
	} `yaml:"mailbox"`

	// Extractor is the OpenAI-compatible completion service.
	Extractor struct {
		Endpoint    string  `yaml:"endpoint"`
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		TimeoutSecs int     `yaml:"timeout_secs"`
	} `yaml:"extractor"`

	SMS struct {
		AccountSID string `yaml:"account_sid"`
		AuthToken  string `yaml:"auth_token"`
		FromNumber string `yaml:"from_number"`
	} `yaml:"sms"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Ingest struct {
		PollIntervalSecs int `yaml:"poll_interval_secs"` // mailbox pull cadence
		BatchSize        int `yaml:"batch_size"`
		Concurrency      int `yaml:"concurrency"`   // bound against the extractor
		BriefingHour     int `yaml:"briefing_hour"` // local hour for daily briefings
	} `yaml:"ingest"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, or falls back to environment variables when
// DATABASE_URL is set (test mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
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

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment variables (test mode)")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Extractor.Endpoint = os.Getenv("EXTRACTOR_ENDPOINT")
	cfg.Extractor.APIKey = os.Getenv("EXTRACTOR_API_KEY")
	cfg.Extractor.Model = os.Getenv("EXTRACTOR_MODEL")
	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_PHONE_NUMBER")

	cfg.applyDefaults()
	AppConfig = &cfg
}

// GetConfig returns the loaded configuration, loading it on first use.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Mailbox.Folder == "" {
		c.Mailbox.Folder = "INBOX"
	}
	if c.Mailbox.LookbackMins == 0 {
		c.Mailbox.LookbackMins = 60
	}
	if c.Extractor.Model == "" {
		c.Extractor.Model = "gpt-4o"
	}
	if c.Extractor.Temperature == 0 {
		c.Extractor.Temperature = 0.1
	}
	if c.Extractor.TimeoutSecs == 0 {
		c.Extractor.TimeoutSecs = 30
	}
	if c.Ingest.PollIntervalSecs == 0 {
		c.Ingest.PollIntervalSecs = 300
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = 20
	}
	if c.Ingest.Concurrency == 0 {
		c.Ingest.Concurrency = 4
	}
	if c.Ingest.BriefingHour == 0 {
		c.Ingest.BriefingHour = 19
	}
}
