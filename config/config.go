package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr        string `json:"listenAddr"`
	DBPath            string `json:"dbPath"`
	StoreName         string `json:"storeName"`
	WhatsAppNumber    string `json:"whatsAppNumber"`
	OrderGreeting     string `json:"orderGreeting"`
	Currency          string `json:"currency"`
	Locale            string `json:"locale"`
	MediaDir          string `json:"mediaDir"`
	PublicBaseURL     string `json:"publicBaseURL"`
	SizesFile         string `json:"sizesFile"`
	AdminEmail        string `json:"adminEmail"`
	AdminPasswordHash string `json:"adminPasswordHash"`
	JWTSecret         string `json:"jwtSecret"`
	SessionTTLMinutes int    `json:"sessionTTLMinutes"`
}

// envOverrides holds values that may be supplied through the environment.
// Empty values leave the file setting untouched.
type envOverrides struct {
	ListenAddr        string `env:"ATELIER_LISTEN_ADDR"`
	DBPath            string `env:"ATELIER_DB_PATH"`
	WhatsAppNumber    string `env:"ATELIER_WHATSAPP_NUMBER"`
	MediaDir          string `env:"ATELIER_MEDIA_DIR"`
	PublicBaseURL     string `env:"ATELIER_PUBLIC_BASE_URL"`
	AdminEmail        string `env:"ATELIER_ADMIN_EMAIL"`
	AdminPasswordHash string `env:"ATELIER_ADMIN_PASSWORD_HASH"`
	JWTSecret         string `env:"ATELIER_JWT_SECRET"`
}

var (
	cfg     = defaults()
	fileCfg = defaults()
	mu      sync.RWMutex

	configFilePath = "./atelier_config.json"
)

func defaults() Config {
	return Config{
		ListenAddr:        ":8080",
		DBPath:            "./atelier.db",
		StoreName:         "Atelier",
		OrderGreeting:     "Olá! Gostaria de fazer o seguinte pedido:",
		Currency:          "BRL",
		Locale:            "pt-BR",
		MediaDir:          "./media",
		SessionTTLMinutes: 720,
	}
}

// SetPath changes the file used by LoadConfig and SaveConfig.
func SetPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	configFilePath = path
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configFilePath
}

func applyDefaults(c *Config) {
	d := defaults()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.StoreName == "" {
		c.StoreName = d.StoreName
	}
	if c.OrderGreeting == "" {
		c.OrderGreeting = d.OrderGreeting
	}
	if c.Currency == "" {
		c.Currency = d.Currency
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.MediaDir == "" {
		c.MediaDir = d.MediaDir
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = d.SessionTTLMinutes
	}
}

func readEnv() (envOverrides, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

type envField struct {
	dst   *string
	value string
}

func (o envOverrides) fields(c *Config) []envField {
	return []envField{
		{&c.ListenAddr, o.ListenAddr},
		{&c.DBPath, o.DBPath},
		{&c.WhatsAppNumber, o.WhatsAppNumber},
		{&c.MediaDir, o.MediaDir},
		{&c.PublicBaseURL, o.PublicBaseURL},
		{&c.AdminEmail, o.AdminEmail},
		{&c.AdminPasswordHash, o.AdminPasswordHash},
		{&c.JWTSecret, o.JWTSecret},
	}
}

func (o envOverrides) apply(c *Config) {
	for _, f := range o.fields(c) {
		if f.value != "" {
			*f.dst = f.value
		}
	}
}

// keepFileValues resets every field the environment overrides to its value
// in from, so environment settings never reach the config file.
func (o envOverrides) keepFileValues(c *Config, from Config) {
	src := o.fields(&from)
	for i, f := range o.fields(c) {
		if f.value != "" {
			*f.dst = *src[i].dst
		}
	}
}

// LoadConfig reads the config file, fills defaults and applies environment
// overrides. A missing file is not an error.
func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	var tempCfg Config
	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", configFilePath, err)
	}

	applyDefaults(&tempCfg)
	o, err := readEnv()
	if err != nil {
		return Config{}, err
	}
	fileCfg = tempCfg
	o.apply(&tempCfg)
	cfg = tempCfg
	return cfg, nil
}

// SaveConfig writes newCfg to the config file. Fields set through the
// environment keep their previous file value on disk and their environment
// value in memory.
func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	applyDefaults(&newCfg)
	o, err := readEnv()
	if err != nil {
		return err
	}
	o.keepFileValues(&newCfg, fileCfg)

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0600); err != nil {
		return err
	}
	fileCfg = newCfg
	o.apply(&newCfg)
	cfg = newCfg
	return nil
}

// FileConfig returns the config as stored on disk, without environment
// overrides.
func FileConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return fileCfg
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
