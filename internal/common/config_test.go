package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"MODEL_NAME", "MODEL_NAME_VISION", "OPENAI_API_BASE", "OPENAI_API_KEY",
	"OPENAI_TEMPERATURE", "OPENAI_TIMEOUT", "LLM_RPM", "LLM_VISION", "LLM_DISABLED",
	"TESSERACT_BIN", "PDFTOPPM_BIN", "PDFTOTEXT_BIN", "TESSERACT_LANG", "TESSDATA_PREFIX", "OCR_DPI",
	"RENAME_FIELDS", "RENAME_SEPARATOR",
}

// clearConfigEnv blanks every key so the defaults apply; t.Setenv restores them afterwards.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "glm-4.5-air", cfg.LLM.Model)
	assert.Equal(t, "glm-4v", cfg.LLM.VisionModel)
	assert.Equal(t, "https://open.bigmodel.cn/api/paas/v4", cfg.LLM.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.LLM.EnableVision)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "chi_sim", cfg.OCR.Lang)
	assert.Equal(t, []string{"销方名称", "开票日期", "合计"}, cfg.Rename.Fields)
	assert.Equal(t, "_", cfg.Rename.Separator)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_NAME", "glm-4-flash")
	t.Setenv("OPENAI_TIMEOUT", "15s")
	t.Setenv("LLM_RPM", "20")
	t.Setenv("LLM_VISION", "true")
	t.Setenv("OCR_DPI", "not-a-number")
	t.Setenv("RENAME_FIELDS", "发票号码， 合计 ,,")
	t.Setenv("RENAME_SEPARATOR", "-")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "glm-4-flash", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 20, cfg.LLM.RPM)
	assert.True(t, cfg.LLM.EnableVision)
	assert.Equal(t, 300, cfg.OCR.DPI, "unparsable values fall back to the default")
	assert.Equal(t, []string{"发票号码", "合计"}, cfg.Rename.Fields)
	assert.Equal(t, "-", cfg.Rename.Separator)
}

func TestLoadConfig_FileExportsOnlyWhenEnabled(t *testing.T) {
	t.Run("json enabled", func(t *testing.T) {
		clearConfigEnv(t)
		p := writeFile(t, "config.json", `{"JSON_ENVIRON": true, "OPENAI_API_KEY": "sk-file", "MODEL_NAME": "from-file", "OCR_DPI": 150}`)

		cfg, err := LoadConfig(p)
		require.NoError(t, err)
		assert.Equal(t, "sk-file", cfg.LLM.APIKey)
		assert.Equal(t, "from-file", cfg.LLM.Model)
		assert.Equal(t, 300, cfg.OCR.DPI, "only model keys are exported")
	})

	t.Run("json disabled", func(t *testing.T) {
		clearConfigEnv(t)
		p := writeFile(t, "config.json", `{"JSON_ENVIRON": "false", "OPENAI_API_KEY": "sk-file"}`)

		cfg, err := LoadConfig(p)
		require.NoError(t, err)
		assert.Empty(t, cfg.LLM.APIKey)
	})

	t.Run("yaml enabled", func(t *testing.T) {
		clearConfigEnv(t)
		p := writeFile(t, "config.yaml", "JSON_ENVIRON: yes\nOPENAI_API_BASE: http://localhost:8080/v1\nMODEL_NAME_VISION: glm-4v-plus\n")

		cfg, err := LoadConfig(p)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
		assert.Equal(t, "glm-4v-plus", cfg.LLM.VisionModel)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeConfig))

	p := writeFile(t, "broken.json", `{"JSON_ENVIRON": `)
	_, err = LoadConfig(p)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeConfig))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a，b, c"))
	assert.Nil(t, SplitList(" , ，"))
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:    LLMConfig{Model: "glm-4.5-air", APIKey: "sk"},
			OCR:    OCRConfig{DPI: 300},
			Rename: RenameConfig{Fields: []string{"合计"}, Separator: "_"},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Rename.Separator = "/"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeConfig))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "RENAME_SEPARATOR")

	cfg = valid()
	cfg.LLM.APIKey = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.Disabled = true
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Rename.Fields = nil
	cfg.OCR.DPI = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RENAME_FIELDS")
	assert.Contains(t, err.Error(), "OCR_DPI")
}
