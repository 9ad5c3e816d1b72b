/*
 * MIT License
 *
 * Copyright (c) 2026 The imago Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package config

import (
	"errors"

	"github.com/spf13/viper"

	"github.com/nabbar/imago/internal/apperr"
)

// readConfig merges a config file into v when one is found. A missing
// config file is not an error. IMAGO_* variables (AutomaticEnv) override
// only keys viper already knows from a default or a config file, so settings
// without a default (host, log_file, the output directories) cannot be
// supplied through the environment alone.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// newViper builds a viper instance seeded with defaults, ready to merge a
// config file located at path (or the conventional search paths when path
// is empty).
func newViper(path string, defaults map[string]interface{}) *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("imago")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("imago")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/imago")
	}
	return v
}

// LoadServerConfig reads, merges and validates the server configuration
// from path (or the conventional search paths when empty). Any failure here
// is fatal at startup, per spec.md §7.
func LoadServerConfig(path string) (ServerConfig, error) {
	def := DefaultServerConfig()
	v := newViper(path, map[string]interface{}{
		"port":      def.Port,
		"log_level": def.LogLevel,
	})

	if err := readConfig(v); err != nil {
		return ServerConfig{}, apperr.Wrap(apperr.CodeConfigInvalid, "read server config", err)
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, apperr.Wrap(apperr.CodeConfigInvalid, "unmarshal server config", err)
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig reads, merges and validates the client configuration
// from path.
func LoadClientConfig(path string) (ClientConfig, error) {
	def := DefaultClientConfig()
	v := newViper(path, map[string]interface{}{
		"port":             def.Port,
		"protocol":         def.Protocol,
		"chunk_size":       def.ChunkSize,
		"connect_timeout":  def.ConnectTimeout,
		"max_retries":      def.MaxRetries,
		"retry_backoff_ms": def.RetryBackoffMs,
	})

	if err := readConfig(v); err != nil {
		return ClientConfig{}, apperr.Wrap(apperr.CodeConfigInvalid, "read client config", err)
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, apperr.Wrap(apperr.CodeConfigInvalid, "unmarshal client config", err)
	}

	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}
