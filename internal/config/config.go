// Package config provides configuration loading and validation for aiprobe.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/metalagman/aiprobe/internal/probe"
)

// Defaults mirror the Qianfan reference setup.
const (
	DefaultAPIURL   = "https://qianfan.baidubce.com/v2/chat/completions"
	DefaultModel    = "qwen3-14b"
	DefaultPrompt   = "请介绍一下动漫《无职转生》"
	DefaultProvider = probe.ProviderBaidu
)

// Config is the root configuration.
type Config struct {
	APIURL   string         `json:"api_url"  mapstructure:"api_url"  yaml:"api_url"`
	APIKey   string         `json:"api_key"  mapstructure:"api_key"  yaml:"api_key"`
	Model    string         `json:"model"    mapstructure:"model"    yaml:"model"`
	Prompt   string         `json:"prompt"   mapstructure:"prompt"   yaml:"prompt"`
	Provider probe.Provider `json:"provider" mapstructure:"provider" yaml:"provider"`
}

// Defaults returns the default settings keyed by config name.
func Defaults() map[string]any {
	return map[string]any{
		"api_url":  DefaultAPIURL,
		"model":    DefaultModel,
		"prompt":   DefaultPrompt,
		"provider": string(DefaultProvider),
	}
}

// Validate checks that the config can drive a probe.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api url is required"))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if !c.Provider.Supported() {
		errs = append(errs, fmt.Errorf("provider %q is not one of %s", c.Provider, strings.Join(probe.Tags(), ", ")))
	}
	return errors.Join(errs...)
}

// Request converts the config into a probe request.
func (c Config) Request() probe.Request {
	return probe.Request{
		APIURL:   c.APIURL,
		APIKey:   c.APIKey,
		Model:    c.Model,
		Prompt:   c.Prompt,
		Provider: c.Provider,
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.APIKey = probe.RedactKey(c.APIKey)
	return c
}

// ProviderHook normalizes provider tags while decoding settings.
func ProviderHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(probe.Provider(""))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != target {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return probe.ParseProvider(s), nil
	}
}
