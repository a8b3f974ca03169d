package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/proctor/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.IdleThresholdMS, convey.ShouldEqual, 5_000)
				convey.So(cfg.RetryBackoffMS, convey.ShouldEqual, 500)
				convey.So(cfg.SynthesisTimeoutMS, convey.ShouldEqual, 20_000)
				convey.So(cfg.QuestionTimeoutMS, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PROCTOR_ADDR", ":8080")
			_ = os.Setenv("PROCTOR_IDLE_THRESHOLD_MS", "2000")
			_ = os.Setenv("PROCTOR_SQLITE_PATH", "/tmp/proctor.db")
			_ = os.Setenv("PROCTOR_LLM_MODEL", "gpt-4o")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.IdleThresholdMS, convey.ShouldEqual, 2000)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/proctor.db")
				convey.So(cfg.LLMModel, convey.ShouldEqual, "gpt-4o")
				convey.So(cfg.RetryBackoffMS, convey.ShouldEqual, 500) // From defaults
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
idle_threshold_ms: 3000
snippet_max_count: 5
dimension_weights:
  query_quality: 0.5
  problem_solving: 0.5
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("PROCTOR_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.IdleThresholdMS, convey.ShouldEqual, 3000)
				convey.So(cfg.SnippetMaxCount, convey.ShouldEqual, 5)
				convey.So(cfg.DimensionWeights["query_quality"], convey.ShouldEqual, 0.5)
				convey.So(cfg.ExcerptMaxLen, convey.ShouldEqual, 120) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
retry_backoff_ms: 250
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("PROCTOR_CONFIG", tmpFile)
			_ = os.Setenv("PROCTOR_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")       // Overridden by env
				convey.So(cfg.RetryBackoffMS, convey.ShouldEqual, 250) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(t, invalidYaml)

			_ = os.Setenv("PROCTOR_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PROCTOR_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PROCTOR_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive idle threshold", func() {
			_ = os.Setenv("PROCTOR_IDLE_THRESHOLD_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PROCTOR_CONFIG",
		"PROCTOR_ADDR",
		"PROCTOR_LOG_LEVEL",
		"PROCTOR_SQLITE_PATH",
		"PROCTOR_IDLE_THRESHOLD_MS",
		"PROCTOR_RETRY_BACKOFF_MS",
		"PROCTOR_EXCERPT_MAX_LEN",
		"PROCTOR_SNIPPET_MAX_COUNT",
		"PROCTOR_SYNTHESIS_TIMEOUT_MS",
		"PROCTOR_QUESTION_TIMEOUT_MS",
		"PROCTOR_LLM_BASE_URL",
		"PROCTOR_LLM_MODEL",
		"PROCTOR_LLM_API_KEY",
		"PROCTOR_LLM_MAX_TOKENS",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
