package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Session struct {
		// memory | redis | postgres
		Store      string `yaml:"store"`
		CookieName string `yaml:"cookie_name"`
		Domain     string `yaml:"domain"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
		// TTL como string de duración ("168h"); ver SessionTTL().
		TTL string `yaml:"ttl"`
		// Secret firma nada hoy (token opaco), pero se mantiene en config por
		// compatibilidad; si falta se auto-genera uno efímero con warning.
		Secret string `yaml:"secret"`
		Redis  struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"session"`

	Freshbooks struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
		// BaseURL permite apuntar a un mock en tests/e2e.
		BaseURL string `yaml:"base_url"`
		AuthURL string `yaml:"auth_url"`
	} `yaml:"freshbooks"`

	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
		From string `yaml:"from"`
		// NotifyTo recibe los avisos de inquiries nuevas.
		NotifyTo string `yaml:"notify_to"`
	} `yaml:"smtp"`
}

// SessionSecretGenerated indica que el secret fue auto-generado en este
// proceso (los cookies no sobreviven un restart). Solo para el warning.
var SessionSecretGenerated bool

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "portal_session"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "168h" // 7 días
	}
	if c.Freshbooks.BaseURL == "" {
		c.Freshbooks.BaseURL = "https://api.freshbooks.com"
	}
	if c.Freshbooks.AuthURL == "" {
		c.Freshbooks.AuthURL = "https://auth.freshbooks.com/oauth/authorize"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	// Debilidad heredada: si no hay secret configurado generamos uno efímero.
	// Todas las sesiones mueren en cada restart del proceso.
	if strings.TrimSpace(c.Session.Secret) == "" {
		b := make([]byte, 32)
		_, _ = rand.Read(b)
		c.Session.Secret = hex.EncodeToString(b)
		SessionSecretGenerated = true
	}

	return &c, nil
}

// SessionTTL parsea Session.TTL; cae a 7 días si el valor no es válido.
func (c *Config) SessionTTL() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(c.Session.TTL)); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}

	if v, ok := getEnvStr("SESSION_STORE"); ok {
		c.Session.Store = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DOMAIN"); ok {
		c.Session.Domain = v
	}
	if v, ok := getEnvStr("SESSION_SAMESITE"); ok {
		c.Session.SameSite = v
	}
	if v, ok := getEnvBool("SESSION_SECURE"); ok {
		c.Session.Secure = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvStr("SESSION_REDIS_ADDR"); ok {
		c.Session.Redis.Addr = v
	}
	if v, ok := getEnvInt("SESSION_REDIS_DB"); ok {
		c.Session.Redis.DB = v
	}

	if v, ok := getEnvStr("FRESHBOOKS_CLIENT_ID"); ok {
		c.Freshbooks.ClientID = v
	}
	if v, ok := getEnvStr("FRESHBOOKS_CLIENT_SECRET"); ok {
		c.Freshbooks.ClientSecret = v
	}
	if v, ok := getEnvStr("FRESHBOOKS_REDIRECT_URI"); ok {
		c.Freshbooks.RedirectURI = v
	}
	if v, ok := getEnvStr("FRESHBOOKS_BASE_URL"); ok {
		c.Freshbooks.BaseURL = v
	}
	if v, ok := getEnvStr("FRESHBOOKS_AUTH_URL"); ok {
		c.Freshbooks.AuthURL = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_NOTIFY_TO"); ok {
		c.SMTP.NotifyTo = v
	}
}
