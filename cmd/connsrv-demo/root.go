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
 *
 */

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	spfcbr "github.com/spf13/cobra"
	spfvpr "github.com/spf13/viper"

	tlsca "github.com/nabbar/golib/certificates/ca"
	tlscrt "github.com/nabbar/golib/certificates/certs"
	tlscpr "github.com/nabbar/golib/certificates/cipher"
	tlscrv "github.com/nabbar/golib/certificates/curves"
	liblog "github.com/nabbar/golib/logger"
	logcfg "github.com/nabbar/golib/logger/config"
	loglvl "github.com/nabbar/golib/logger/level"
	libmet "github.com/nabbar/golib/metrics"
	libsrv "github.com/nabbar/golib/server"
)

const (
	flagListen        = "listen"
	flagExpose        = "expose"
	flagMetricsListen = "metricsListen"
	flagConfig        = "config"
	flagLogFile       = "logFile"
	flagAccessLog     = "accessLog"

	healthCheckInterval = 30 * time.Second
)

func newRootCommand() *spfcbr.Command {
	vpr := spfvpr.New()

	cmd := &spfcbr.Command{
		Use:   "connsrv-demo",
		Short: "Run a demo engine-backed HTTP server",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			return runServe(cmd.Context(), vpr)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagListen, "0.0.0.0:8080", "address to bind the demo server on")
	flags.String(flagExpose, "http://localhost:8080", "externally reachable URL for the demo server")
	flags.String(flagMetricsListen, "0.0.0.0:9100", "address to expose Prometheus metrics on")
	flags.String(flagConfig, "", "optional YAML/JSON/TOML file providing the full server configuration, including TLS")
	flags.String(flagLogFile, "", "optional file path to additionally log to, on top of stdout/stderr")
	flags.Bool(flagAccessLog, true, "include per-request access log lines on stdout")

	for _, f := range []string{flagListen, flagExpose, flagMetricsListen, flagLogFile, flagAccessLog} {
		_ = vpr.BindPFlag(f, flags.Lookup(f))
	}

	return cmd
}

// tlsDecodeHook composes the certificates sub-packages' own Viper decode
// hooks so a --config file's "tls" section populates Config.TLS the same
// way the rest of the corpus's components decode their TLS blocks.
func tlsDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		tlscrt.ViperDecoderHook(),
		tlsca.ViperDecoderHook(),
		tlscpr.ViperDecoderHook(),
		tlscrv.ViperDecoderHook(),
	)
}

func loadConfig(vpr *spfvpr.Viper) (libsrv.Config, error) {
	cfg := libsrv.DefaultConfig()
	cfg.Name = "connsrv-demo"

	if f := vpr.GetString(flagConfig); f != "" {
		vpr.SetConfigFile(f)
		if err := vpr.ReadInConfig(); err != nil {
			return cfg, err
		}

		opt := spfvpr.DecoderConfigOption(func(c *mapstructure.DecoderConfig) {
			c.DecodeHook = tlsDecodeHook()
		})
		if err := vpr.Unmarshal(&cfg, opt); err != nil {
			return cfg, err
		}
	}

	cfg.Listen = vpr.GetString(flagListen)
	cfg.Expose = vpr.GetString(flagExpose)

	return cfg, nil
}

func runServe(ctx context.Context, vpr *spfvpr.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(vpr)
	if err != nil {
		return err
	}

	lg := liblog.New(ctx)
	lg.SetLevel(loglvl.InfoLevel)

	opt := &logcfg.Options{
		Stdout: &logcfg.OptionsStd{
			EnableAccessLog: vpr.GetBool(flagAccessLog),
		},
	}
	if f := vpr.GetString(flagLogFile); f != "" {
		opt.LogFileExtend = true
		opt.LogFile = logcfg.OptionsFiles{{
			Filepath:   f,
			Create:     true,
			CreatePath: true,
		}}
	}
	if err := lg.SetOptions(opt); err != nil {
		return err
	}

	defLog := func() liblog.Logger { return lg }

	met := libmet.NewPrometheus("connsrv", nil)
	cfg.SetMetrics(met)

	srv, err := libsrv.New(cfg, defLog)
	if err != nil {
		return err
	}
	srv.Handler(echoExecutor())

	metricsAddr := vpr.GetString(flagMetricsListen)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		lg.Info("starting metrics listener", metricsAddr)
		if e := metricsSrv.ListenAndServe(); e != nil && e != http.ErrServerClosed {
			lg.Error("metrics listener failed", e)
		}
	}()
	defer func() { _ = metricsSrv.Shutdown(context.Background()) }()

	pool := libsrv.NewPool(srv)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err = pool.Start(runCtx); err != nil {
		return err
	}

	go runHealthCheckLoop(runCtx, lg, srv)

	pool.WaitNotify(runCtx, cancel)

	return nil
}

// runHealthCheckLoop periodically probes the server's HealthCheck and logs
// the outcome, standing in for the monitoring-pool wiring an embedder with
// a full montps.Monitor stack would perform.
func runHealthCheckLoop(ctx context.Context, lg liblog.Logger, srv libsrv.Server) {
	t := time.NewTicker(healthCheckInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if e := srv.HealthCheck(ctx); e != nil {
				lg.Error("healthcheck failed", e, srv.MonitorName())
			} else {
				lg.Debug("healthcheck ok", nil, srv.MonitorName())
			}
		}
	}
}
