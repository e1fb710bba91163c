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

// Command s3fsgwd wires config -> logger -> storage -> sigv4 ->
// dispatcher -> httpserver behind a single spf13/cobra RunE, since this
// gateway has exactly one mode of operation (see DESIGN.md).
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	libcfg "github.com/sabouaram/s3fsgw/config"
	"github.com/sabouaram/s3fsgw/dispatcher"
	"github.com/sabouaram/s3fsgw/httpserver"
	"github.com/sabouaram/s3fsgw/logger"
	"github.com/sabouaram/s3fsgw/observability"
	"github.com/sabouaram/s3fsgw/sigv4"
	"github.com/sabouaram/s3fsgw/storage"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "s3fsgwd",
		Short:         "S3-compatible object storage gateway backed by a local filesystem",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a config file (yaml/toml/json)")
	libcfg.Bind(root.Flags())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := libcfg.Load(cmd.Flags(), configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Level(cfg.LogLevel), logger.Format(cfg.LogFormat), os.Stdout)

	creds := newCredentialStore(cfg.Credentials)
	if cfg.CredentialsFile != "" {
		fileKeys, err := loadCredentialsFile(cfg.CredentialsFile)
		if err != nil {
			return fmt.Errorf("load credentials file: %w", err)
		}
		for k, v := range fileKeys {
			cfg.Credentials[k] = v
		}
		creds = newCredentialStore(cfg.Credentials)

		watcher, err := watchCredentialsFile(cfg.CredentialsFile, creds, log)
		if err != nil {
			return fmt.Errorf("watch credentials file: %w", err)
		}
		defer watcher.Close()
	}

	engine := storage.New(cfg.DataDir)

	authCfg := sigv4.Config{
		ClockSkew:                   cfg.ClockSkewSeconds.Time(),
		MaxPresignExpires:           cfg.MaxPresignExpires,
		AllowHostCandidateFallbacks: cfg.AllowHostCandidateFallbacks,
		AllowLegacyAccessKeyOnly:    cfg.AllowLegacyAccessKeyOnly,
		AllowedAccessKeys:           cfg.AllowedAccessKeys,
	}
	auth := sigv4.New(creds, authCfg)
	if cfg.AuthDebugLog != "" {
		traceFile, err := os.OpenFile(cfg.AuthDebugLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open auth debug log: %w", err)
		}
		defer traceFile.Close()
		traceLog := logger.New(logger.LevelDebug, logger.FormatJSON, traceFile)
		auth = auth.WithTrace(traceLog.AuthTrace)
	}

	access := logger.MultiAccess{log, observability.New()}
	d := dispatcher.New(engine, auth, int64(cfg.MaxRequestSize), serverName(), serverPort(cfg.ListenAddr), access)

	s3Server := httpserver.New("s3", cfg.ListenAddr, d.Router(), log)
	adminServer := httpserver.New("admin", cfg.AdminListenAddr, observability.Router(cfg.DataDir), log)

	log.With(map[string]any{
		"listen":       cfg.ListenAddr,
		"admin_listen": cfg.AdminListenAddr,
		"data_dir":     cfg.DataDir,
	}).Info("s3fsgwd starting")

	return httpserver.Run(context.Background(), s3Server, adminServer)
}

func serverName() string {
	name, err := os.Hostname()
	if err != nil {
		return "s3fsgw"
	}
	return name
}

func serverPort(listenAddr string) string {
	_, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return ""
	}
	return port
}
