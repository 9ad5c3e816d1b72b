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
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/imago/internal/client"
)

// ClientConfig is the full set of options recognized by the client, per
// spec.md §6.
type ClientConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Protocol       string `mapstructure:"protocol" validate:"required,oneof=http https"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // seconds
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryBackoffMs int    `mapstructure:"retry_backoff_ms"`
}

// DefaultClientConfig matches spec.md §6's stated defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Port:           1717,
		Protocol:       "http",
		ChunkSize:      client.DefaultChunkSize,
		ConnectTimeout: 10,
		MaxRetries:     3,
		RetryBackoffMs: 500,
	}
}

// Validate runs struct-tag validation only; the client has no filesystem
// preconditions beyond the files it's given to upload.
func (c ClientConfig) Validate() error {
	if er := libval.New().Struct(c); er != nil {
		return translateValidationError(er)
	}
	return nil
}

// SenderConfig adapts the validated ClientConfig into client.Config.
func (c ClientConfig) SenderConfig() client.Config {
	return client.Config{
		Host:           c.Host,
		Port:           c.Port,
		Protocol:       c.Protocol,
		ChunkSize:      c.ChunkSize,
		ConnectTimeout: time.Duration(c.ConnectTimeout) * time.Second,
		MaxRetries:     c.MaxRetries,
		RetryBackoffMs: c.RetryBackoffMs,
	}
}
