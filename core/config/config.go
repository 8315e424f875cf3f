package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	// ConfigurationName is the file looked up under the configuration
	// directory.
	ConfigurationName = "config.yaml"
)

// Configuration holds the shell's own settings. It only covers the shell
// surface (prompt, history, diagnostics); command lines are never expanded
// or rewritten based on configuration.
type Configuration struct {
	// Prompt is printed verbatim before each line read.
	Prompt string `json:"prompt" env:"BSH_PROMPT" validate:"required"`

	// HistoryFile is where the line editor persists input history across
	// sessions. Empty keeps history in memory only.
	HistoryFile string `json:"history_file" env:"BSH_HISTORY_FILE"`

	// AppLog receives structured session diagnostics. Empty disables the
	// log entirely.
	AppLog string `json:"app_log" env:"BSH_APP_LOG"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
