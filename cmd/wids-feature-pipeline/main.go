/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "net/http/pprof"

	jsoniter "github.com/json-iterator/go"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/netobserv/wids-feature-pipeline/pkg/operational/health"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/utils"
	"github.com/netobserv/wids-feature-pipeline/pkg/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	buildVersion       = "unknown"
	buildDate          = "unknown"
	cfgFile            string
	envPrefix          = "WIDS"
	defaultLogFileName = ".wids-feature-pipeline"
	opts               config.Options
	exitCode           int
)

// legacyEnv lists the environment variable names accepted in addition to the WIDS_ prefixed ones.
var legacyEnv = map[string]string{
	"kismet.url":        "KISMET_URL",
	"kismet.window-sec": "KISMET_WINDOW_SEC",
	"es.url":            "ES_URL",
	"es.index":          "ES_INDEX",
	"es.username":       "ES_USERNAME",
	"es.password":       "ES_PASSWORD",
	"es.pipeline":       "ES_PIPELINE",
	"sensor.id":         "SENSOR_ID",
	"sensor.site":       "SENSOR_SITE",
	"poll.interval-sec": "POLL_INTERVAL_SEC",
	"log-level":         "LOG_LEVEL",
}

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "wids-feature-pipeline",
	Short: "Turn wireless capture-daemon device listings into behavioral feature documents",
	Run: func(_ *cobra.Command, _ []string) {
		exitCode = run()
	},
}

// initConfig use config file and ENV variables if set.
func initConfig() {
	v := viper.New()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".wids-feature-pipeline" (without extension).
			v.AddConfigPath(home)
		}
		v.SetConfigName(defaultLogFileName)
		v.SetConfigType("yaml")
	}

	// If a config file is found, read it in.
	cfgErr := v.ReadInConfig()

	bindFlags(rootCmd, v)

	// initialize logger
	initLogger()

	var notFound viper.ConfigFileNotFoundError
	if cfgErr != nil && (cfgFile != "" || !errors.As(cfgErr, &notFound)) {
		log.Errorf("Read config error: %v", cfgErr)
	}
}

func initLogger() {
	ll, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		ll = log.InfoLevel
	}
	log.SetLevel(ll)
	if opts.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true, PadLevelText: true, DisableQuote: true})
}

func dumpConfig(opts *config.Options) {
	redacted := *opts
	redact(&redacted.Kismet.APIKey, &redacted.Kismet.Password, &redacted.Elasticsearch.Password, &redacted.S3.SecretAccessKey)
	configAsJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(redacted, "", "    ")
	if err != nil {
		panic(fmt.Sprintf("error dumping config: %v", err))
	}
	fmt.Printf("Using configuration:\n%s\n", configAsJSON)
}

func redact(secrets ...*string) {
	for _, s := range secrets {
		if *s != "" {
			*s = "***"
		}
	}
}

// envNames returns the environment variables bound to a flag, by precedence.
func envNames(flag string) []string {
	suffix := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(flag))
	names := []string{fmt.Sprintf("%s_%s", envPrefix, suffix)}
	if legacy, ok := legacyEnv[flag]; ok {
		names = append(names, legacy)
	}
	return names
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = v.BindEnv(append([]string{f.Name}, envNames(f.Name)...)...)

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			switch val.(type) {
			case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32, []string, []int:
				_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			default:
				var jsonNew = jsoniter.ConfigCompatibleWithStandardLibrary
				b, err := jsonNew.Marshal(&val)
				if err != nil {
					log.Fatalf("can't parse flag %s into json with value %v got error %s", f.Name, val, err)
					return
				}
				_ = cmd.Flags().Set(f.Name, string(b))
			}
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s.yaml)", defaultLogFileName))
	f.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warning, error")
	f.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")
	f.StringVar(&opts.Health.Address, "health.address", "0.0.0.0", "Health server address")
	f.StringVar(&opts.Health.Port, "health.port", config.DefaultHealthPort, "Health server port")
	f.IntVar(&opts.Profile.Port, "profile.port", 0, "Go pprof tool port (default: disabled)")
	f.StringVar(&opts.Metrics.Address, "metrics.address", "0.0.0.0", "Prometheus endpoint address")
	f.IntVar(&opts.Metrics.Port, "metrics.port", config.DefaultMetricsPort, "Prometheus endpoint port, negative to disable")
	f.StringVar(&opts.Metrics.Prefix, "metrics.prefix", config.DefaultMetricsPrefix, "Prefix of the operational metric names")

	f.StringVar(&opts.Kismet.URL, "kismet.url", config.DefaultKismetURL, "Capture daemon base URL")
	f.IntVar(&opts.Kismet.WindowSec, "kismet.window-sec", config.DefaultKismetWindowSec, "Only fetch devices active during this many seconds")
	f.DurationVar(&opts.Kismet.Timeout.Duration, "kismet.timeout", config.DefaultKismetTimeout, "Device listing timeout")
	f.StringVar(&opts.Kismet.APIKey, "kismet.api-key", "", "Capture daemon API key")
	f.StringVar(&opts.Kismet.Username, "kismet.username", "", "Capture daemon user")
	f.StringVar(&opts.Kismet.Password, "kismet.password", "", "Capture daemon password")

	f.IntVar(&opts.Poll.IntervalSec, "poll.interval-sec", config.DefaultPollIntervalSec, "Seconds between two poll cycles")
	f.StringVar(&opts.Sensor.ID, "sensor.id", "", "Sensor identifier (default: hostname)")
	f.StringVar(&opts.Sensor.Site, "sensor.site", config.DefaultSensorSite, "Sensor site label")
	f.IntVar(&opts.Features.WindowSize, "features.window-size", config.DefaultWindowSize, "Signal samples retained per device")
	f.IntVar(&opts.Features.IdleTimeoutSec, "features.idle-timeout-sec", config.DefaultIdleTimeoutSec, "Seconds after which an unseen device history is evicted")
	f.StringVar(&opts.Scorer.ModelPath, "scorer.model-path", "", "Anomaly model artifact, JSON or YAML (default: scoring disabled)")
	f.Float64Var(&opts.Scorer.Threshold, "scorer.threshold", 0, "Anomaly threshold (default: the artifact threshold)")

	f.StringVar(&opts.Sink.Type, "sink.type", "elasticsearch", "Sink: elasticsearch, kafka, s3 or stdout")
	f.IntVar(&opts.Sink.MaxRetries, "sink.max-retries", config.DefaultMaxRetries, "Retries of a whole batch on transient failure")
	f.DurationVar(&opts.Sink.MinBackoff.Duration, "sink.min-backoff", config.DefaultMinBackoff, "Initial backoff between retries")
	f.DurationVar(&opts.Sink.MaxBackoff.Duration, "sink.max-backoff", config.DefaultMaxBackoff, "Maximum backoff between retries")
	f.StringVar(&opts.Elasticsearch.URL, "es.url", config.DefaultElasticsearchURL, "Elasticsearch base URL")
	f.StringVar(&opts.Elasticsearch.Index, "es.index", config.DefaultIndex, "Elasticsearch index")
	f.StringVar(&opts.Elasticsearch.Username, "es.username", "", "Elasticsearch user")
	f.StringVar(&opts.Elasticsearch.Password, "es.password", "", "Elasticsearch password")
	f.StringVar(&opts.Elasticsearch.Pipeline, "es.pipeline", "", "Elasticsearch ingest pipeline")
	f.BoolVar(&opts.Elasticsearch.InsecureSkipVerify, "es.insecure-skip-verify", false, "Skip Elasticsearch certificate verification")
	f.DurationVar(&opts.Elasticsearch.Timeout.Duration, "es.timeout", config.DefaultElasticTimeout, "Bulk request timeout")
	f.StringVar(&opts.Kafka.Address, "kafka.address", config.DefaultKafkaAddress, "Kafka broker address")
	f.StringVar(&opts.Kafka.Topic, "kafka.topic", config.DefaultIndex, "Kafka topic")
	f.Int64Var(&opts.Kafka.WriteTimeout, "kafka.write-timeout", 0, "Kafka write timeout, in seconds")
	f.Int64Var(&opts.Kafka.BatchBytes, "kafka.batch-bytes", 0, "Maximum size of a Kafka request, in bytes")
	f.StringVar(&opts.S3.Endpoint, "s3.endpoint", "", "S3 server address")
	f.StringVar(&opts.S3.Bucket, "s3.bucket", "", "S3 bucket")
	f.StringVar(&opts.S3.Account, "s3.account", "", "Prefix of the S3 object names")
	f.StringVar(&opts.S3.AccessKeyID, "s3.access-key-id", "", "S3 access key")
	f.StringVar(&opts.S3.SecretAccessKey, "s3.secret-access-key", "", "S3 secret key")
	f.BoolVar(&opts.S3.Secure, "s3.secure", false, "Use HTTPS to reach S3")
	f.BoolVar(&opts.S3.Compress, "s3.compress", false, "Snappy-compress S3 objects")
	f.DurationVar(&opts.S3.Timeout.Duration, "s3.timeout", config.DefaultS3Timeout, "Object upload timeout")
	f.StringVar(&opts.Stdout.Format, "stdout.format", config.DefaultStdoutFormat, "Stdout line format: json or printf")
}

func main() {
	// Initialize flags (command line parameters)
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func run() int {
	// Initial log message
	fmt.Printf("Starting %s:\n=====\nBuild version: %s\nBuild date: %s\n\n", filepath.Base(os.Args[0]), buildVersion, buildDate)

	// Dump configuration
	dumpConfig(&opts)

	cfg, err := config.ParseConfig(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Setup (threads) exit manager
	utils.SetupElegantExit()
	ctx, cancel := utils.ExitContext(context.Background())
	defer cancel()
	promServer := prometheus.InitializePrometheus(&cfg.Metrics)
	opMetrics := operational.NewMetrics(&cfg.Metrics)

	mainPipeline, err := pipeline.NewPipeline(&cfg, opMetrics)
	if err != nil {
		log.Errorf("failed to initialize pipeline: %s", err)
		return 1
	}

	if opts.Profile.Port != 0 {
		go func() {
			log.WithField("port", opts.Profile.Port).Info("starting PProf HTTP listener")
			log.WithError(http.ListenAndServe(fmt.Sprintf(":%d", opts.Profile.Port), nil)).
				Error("PProf HTTP listener stopped working")
		}()
	}

	// Start health report server
	healthServer := health.NewHealthServer(&cfg.Options, mainPipeline.IsAlive, mainPipeline.IsReady)

	// Runs the poll loop until an exit signal is received
	if err := mainPipeline.Run(ctx); err != nil {
		log.WithError(err).Error("poll loop failed")
	}
	if err := mainPipeline.Close(); err != nil {
		log.WithError(err).Warn("error while closing the pipeline")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if promServer != nil {
		_ = promServer.Shutdown(shutdownCtx)
	}
	_ = healthServer.Shutdown(shutdownCtx)

	log.Debugf("exiting main run")
	return 0
}
