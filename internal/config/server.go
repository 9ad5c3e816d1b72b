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

// Package config loads and validates the server and client configuration
// trees consumed at startup, per spec.md §6's recognized options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/imago/internal/apperr"
)

// ColorsDirs names the three color-classification output directories.
type ColorsDirs struct {
	Red   string `mapstructure:"red" validate:"required"`
	Green string `mapstructure:"green" validate:"required"`
	Blue  string `mapstructure:"blue" validate:"required"`
}

// ServerConfig is the full set of options recognized by the server, per
// spec.md §6.
type ServerConfig struct {
	Port         int        `mapstructure:"port" validate:"required,min=1,max=65535"`
	TLSEnabled   bool       `mapstructure:"tls_enabled"`
	TLSDir       string     `mapstructure:"tls_dir" validate:"required_if=TLSEnabled true"`
	LogFile      string     `mapstructure:"log_file" validate:"required"`
	LogLevel     string     `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error fatal"`
	HistogramDir string     `mapstructure:"histogram_dir" validate:"required"`
	ColorsDir    ColorsDirs `mapstructure:"colors_dir"`
	MaxImageSize uint32     `mapstructure:"max_image_size"`
	MetricsAddr  string     `mapstructure:"metrics_addr"` // empty disables the /metrics endpoint
	PIDFile      string     `mapstructure:"pidfile"`
}

// DefaultServerConfig matches spec.md §6's stated defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:     1717,
		LogLevel: "info",
	}
}

// Validate runs struct-tag validation and the filesystem/TLS-asset checks
// spec.md §7 treats as fatal startup errors.
func (c ServerConfig) Validate() error {
	if er := libval.New().Struct(c); er != nil {
		return translateValidationError(er)
	}

	if err := requireWritableDir(c.HistogramDir); err != nil {
		return err
	}
	for _, dir := range []string{c.ColorsDir.Red, c.ColorsDir.Green, c.ColorsDir.Blue} {
		if err := requireWritableDir(dir); err != nil {
			return err
		}
	}

	if c.TLSEnabled {
		assets := []string{filepath.Join(c.TLSDir, "server.crt"), filepath.Join(c.TLSDir, "server.key")}
		for _, path := range assets {
			if _, err := os.Stat(path); err != nil {
				return apperr.Wrap(apperr.CodeConfigMissingTLS, fmt.Sprintf("missing TLS asset %s", path), err)
			}
		}
	}

	if _, err := os.OpenFile(c.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		return apperr.Wrap(apperr.CodeConfigInvalid, "cannot open log_file for append", err)
	}

	return nil
}

func requireWritableDir(dir string) error {
	if dir == "" {
		return apperr.New(apperr.CodeConfigBadDir, "directory path is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return apperr.Wrap(apperr.CodeConfigBadDir, fmt.Sprintf("directory %s is not accessible", dir), err)
	}
	if !info.IsDir() {
		return apperr.New(apperr.CodeConfigBadDir, fmt.Sprintf("%s is not a directory", dir))
	}
	probe := filepath.Join(dir, ".imago-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return apperr.Wrap(apperr.CodeConfigBadDir, fmt.Sprintf("directory %s is not writable", dir), err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

func translateValidationError(er error) error {
	if ve, ok := er.(*libval.InvalidValidationError); ok {
		return apperr.Wrap(apperr.CodeConfigInvalid, "invalid validation target", ve)
	}
	if ves, ok := er.(libval.ValidationErrors); ok && len(ves) > 0 {
		e := ves[0]
		return apperr.New(apperr.CodeConfigInvalid, fmt.Sprintf("config field %q fails constraint %q", e.StructNamespace(), e.ActualTag()))
	}
	return apperr.Wrap(apperr.CodeConfigInvalid, "config validation failed", er)
}
