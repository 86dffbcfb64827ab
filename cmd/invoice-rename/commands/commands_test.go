package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-renamer/internal/cascade"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"", "text", "JSON"} {
		l, err := newLogger(false, format)
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
	_, err := newLogger(true, "xml")
	assert.Error(t, err)
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"rename", "dedupe", "fields", "inspect", "watch"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-format"))
}

func newFlagCmd(t *testing.T, f *extractionFlags, set map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	for k, v := range set {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestLoadSettings_FlagsOverrideConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_DISABLED", "")
	t.Setenv("RENAME_FIELDS", "")
	t.Setenv("RENAME_SEPARATOR", "")

	var f extractionFlags
	cmd := newFlagCmd(t, &f, map[string]string{
		"fields": "发票号码，合计",
		"sep":    "-",
		"vision": "true",
	})

	cfg, err := f.loadSettings(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"发票号码", "合计"}, cfg.Rename.Fields)
	assert.Equal(t, "-", cfg.Rename.Separator)
	assert.True(t, cfg.LLM.EnableVision)
	assert.False(t, cfg.LLM.Disabled)
}

func TestLoadSettings_NoKeyFallsBackToRegex(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_DISABLED", "")

	var f extractionFlags
	cfg, err := f.loadSettings(newFlagCmd(t, &f, nil))
	require.NoError(t, err)
	assert.True(t, cfg.LLM.Disabled)
}

func TestLoadSettings_RejectsPathSeparator(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	var f extractionFlags
	_, err := f.loadSettings(newFlagCmd(t, &f, map[string]string{"sep": "/"}))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeConfig))
}

func TestBuildCascade_NoAI(t *testing.T) {
	cfg := &common.Config{
		LLM:    common.LLMConfig{Disabled: true},
		OCR:    common.OCRConfig{DPI: 300},
		Rename: common.RenameConfig{Fields: fields.DefaultSelection, Separator: "_"},
	}
	cas, err := buildCascade(cfg, fields.DefaultTable(), nil)
	require.NoError(t, err)
	assert.NotNil(t, cas)
	assert.IsType(t, &cascade.Cascade{}, cas)
}

func TestBuildCascade_WithAI(t *testing.T) {
	cfg := &common.Config{
		LLM:    common.LLMConfig{APIKey: "sk", Model: "glm-4.5-air", VisionModel: "glm-4v", RPM: 30},
		OCR:    common.OCRConfig{DPI: 200},
		Rename: common.RenameConfig{Fields: fields.DefaultSelection, Separator: "_"},
	}
	cas, err := buildCascade(cfg, fields.DefaultTable(), nil)
	require.NoError(t, err)
	assert.NotNil(t, cas)
}

func TestOCRTextReportsFailuresAsText(t *testing.T) {
	cfg := &common.Config{OCR: common.OCRConfig{DPI: 300}}
	ctx := context.Background()

	assert.Equal(t, "已识别", ocrText(ctx, cfg, cascade.Outcome{OCRText: "已识别"}, "ignored.pdf"))

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("x"), 0o600))
	assert.Equal(t, "不支持的文件类型: .txt", ocrText(ctx, cfg, cascade.Outcome{}, notes))

	missing := filepath.Join(t.TempDir(), "missing.png")
	assert.Equal(t, "文件未找到: "+missing, ocrText(ctx, cfg, cascade.Outcome{}, missing))
}
