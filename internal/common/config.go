package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "config.json"

// fileEnvKeys are the only keys a config file may export into the process environment.
var fileEnvKeys = []string{"MODEL_NAME", "MODEL_NAME_VISION", "OPENAI_API_BASE", "OPENAI_API_KEY"}

// Config holds all application configuration
type Config struct {
	LLM    LLMConfig
	OCR    OCRConfig
	Rename RenameConfig
}

// LLMConfig holds generative-model settings
type LLMConfig struct {
	Model        string
	VisionModel  string
	BaseURL      string
	APIKey       string
	Temperature  float32
	Timeout      time.Duration
	RPM          int  // courtesy request-per-minute cap; 0 disables
	EnableVision bool // allow the vision fallback when OCR yields nothing
	Disabled     bool // regex-only runs (no remote calls)
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Pdftoppm    string
	Pdftotext   string
	Lang        string
	TessdataDir string
	DPI         int
}

// RenameConfig holds the default field selection and separator
type RenameConfig struct {
	Fields    []string
	Separator string
}

// LoadConfig loads .env, then the optional config file, then reads the environment.
// An explicitly named file that does not exist is an error; the default one is optional.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := loadConfigFile(path, explicit); err != nil {
		return nil, err
	}

	return &Config{
		LLM: LLMConfig{
			Model:        getEnv("MODEL_NAME", "glm-4.5-air"),
			VisionModel:  getEnv("MODEL_NAME_VISION", "glm-4v"),
			BaseURL:      getEnv("OPENAI_API_BASE", "https://open.bigmodel.cn/api/paas/v4"),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			Temperature:  getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			RPM:          getEnvAsInt("LLM_RPM", 0),
			EnableVision: getEnvAsBool("LLM_VISION", false),
			Disabled:     getEnvAsBool("LLM_DISABLED", false),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Lang:        getEnv("TESSERACT_LANG", "chi_sim"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			DPI:         getEnvAsInt("OCR_DPI", 300),
		},
		Rename: RenameConfig{
			Fields:    SplitList(getEnv("RENAME_FIELDS", "销方名称,开票日期,合计")),
			Separator: getEnv("RENAME_SEPARATOR", "_"),
		},
	}, nil
}

// loadConfigFile exports the model keys of a JSON or YAML file into os.Environ,
// but only when the file sets JSON_ENVIRON to a truthy value.
func loadConfigFile(path string, explicit bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return NewAppError(CodeConfig, "read config file "+path, err)
	}

	var m map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &m)
	default:
		err = json.Unmarshal(raw, &m)
	}
	if err != nil {
		return NewAppError(CodeConfig, "decode config file "+path, err)
	}

	if !fileEnvEnabled(m["JSON_ENVIRON"]) {
		return nil
	}
	for _, key := range fileEnvKeys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(v)); err != nil {
			return NewAppError(CodeConfig, "export "+key, err)
		}
	}
	return nil
}

func fileEnvEnabled(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return !strings.EqualFold(strings.TrimSpace(t), "false")
	default:
		return true
	}
}

// SplitList splits a comma separated list (ASCII or full-width commas), dropping blanks.
func SplitList(s string) []string {
	s = strings.ReplaceAll(s, "，", ",")
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("RENAME_FIELDS", c.Rename.Fields, Required).
		Field("RENAME_SEPARATOR", c.Rename.Separator, NoPathSeparator).
		Field("OCR_DPI", c.OCR.DPI, Positive)
	if !c.LLM.Disabled {
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required).
			Field("MODEL_NAME", c.LLM.Model, Required)
	}
	return ValidateAndReturnError(v)
}
