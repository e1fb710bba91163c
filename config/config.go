/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 *
 */

// Package config resolves the gateway's startup configuration in
// precedence order flags > environment (S3FSGW_ prefix) > config file >
// defaults, via spf13/viper and spf13/pflag. The load happens once at
// process startup, so this package talks to viper directly rather than
// through a hot-reloadable multi-component lifecycle manager.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	libdur "github.com/sabouaram/s3fsgw/duration"
	libsiz "github.com/sabouaram/s3fsgw/size"
)

// Config is the fully resolved, validated startup configuration.
type Config struct {
	DataDir           string
	ListenAddr        string
	AdminListenAddr   string
	MaxRequestSize    libsiz.Size
	Credentials       map[string]string
	AllowedAccessKeys map[string]bool

	AllowLegacyAccessKeyOnly    bool
	ClockSkewSeconds            libdur.Duration
	MaxPresignExpires           int64
	AllowHostCandidateFallbacks bool
	AuthDebugLog                string

	LogLevel  string
	LogFormat string

	CredentialsFile string
}

// Bind registers every recognized flag on fs, the command's flag set.
func Bind(fs *pflag.FlagSet) {
	fs.String("data-dir", "", "root path for objects and multipart scratch state")
	fs.String("listen-addr", ":9000", "address the S3 listener binds")
	fs.String("admin-listen-addr", ":9001", "address /metrics and /healthz bind")
	fs.String("max-request-size", "5GiB", "reject requests whose declared Content-Length exceeds this")
	fs.StringToString("credentials", nil, "accessKeyId=secretKey pairs")
	fs.String("credentials-file", "", "path to a hot-reloaded accessKeyId=secretKey file")
	fs.StringSlice("allowed-access-keys", nil, "access keys accepted under legacy mode")
	fs.Bool("allow-legacy-access-key-only", false, "skip full SigV4 if the access key is allow-listed")
	fs.String("clock-skew", "15m", "max clock skew for header-signed requests and presign future-dating, e.g. \"15m\" or \"1d2h\"")
	fs.Int64("max-presign-expires", 604800, "upper bound, in seconds, on X-Amz-Expires")
	fs.Bool("allow-host-candidate-fallbacks", false, "enable X-Forwarded-Host / SERVER_NAME host candidates")
	fs.String("auth-debug-log", "", "path to a signature-mismatch trace log; empty disables")
	fs.String("log-level", "info", "debug|info|warn|error")
	fs.String("log-format", "text", "text|json")
}

// Load resolves the bound flags through viper's flag > env > file >
// default precedence and validates the result.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("S3FSGW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	maxReq, err := libsiz.Parse(v.GetString("max-request-size"))
	if err != nil {
		return nil, fmt.Errorf("max-request-size: %w", err)
	}

	clockSkew, err := libdur.Parse(v.GetString("clock-skew"))
	if err != nil {
		return nil, fmt.Errorf("clock-skew: %w", err)
	}

	credentials := v.GetStringMapString("credentials")
	if len(credentials) == 0 {
		// A value from the environment is a plain "k=v,k2=v2" string.
		credentials = make(map[string]string)
		for _, pair := range strings.Split(v.GetString("credentials"), ",") {
			if k, secret, ok := strings.Cut(strings.TrimSpace(pair), "="); ok && k != "" {
				credentials[k] = secret
			}
		}
	}

	allowed := make(map[string]bool)
	for _, k := range v.GetStringSlice("allowed-access-keys") {
		if k != "" {
			allowed[k] = true
		}
	}

	cfg := &Config{
		DataDir:                     v.GetString("data-dir"),
		ListenAddr:                  v.GetString("listen-addr"),
		AdminListenAddr:             v.GetString("admin-listen-addr"),
		MaxRequestSize:              maxReq,
		Credentials:                 credentials,
		AllowedAccessKeys:           allowed,
		AllowLegacyAccessKeyOnly:    v.GetBool("allow-legacy-access-key-only"),
		ClockSkewSeconds:            clockSkew,
		MaxPresignExpires:           v.GetInt64("max-presign-expires"),
		AllowHostCandidateFallbacks: v.GetBool("allow-host-candidate-fallbacks"),
		AuthDebugLog:                v.GetString("auth-debug-log"),
		LogLevel:                    v.GetString("log-level"),
		LogFormat:                   v.GetString("log-format"),
		CredentialsFile:             v.GetString("credentials-file"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate fails startup if no credentials are configured and legacy
// access-key-only mode isn't enabled with a non-empty allow-list.
func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	hasCreds := len(c.Credentials) > 0 || c.CredentialsFile != ""
	hasLegacy := c.AllowLegacyAccessKeyOnly && len(c.AllowedAccessKeys) > 0
	if !hasCreds && !hasLegacy {
		return fmt.Errorf("no CREDENTIALS configured and legacy access-key-only mode is not usably enabled")
	}
	return nil
}
