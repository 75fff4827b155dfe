package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/logger"
	"github.com/spigell/uni-matcher/internal/matcher"
	"github.com/spigell/uni-matcher/internal/server"
)

const (
	app = "uni-matcher"

	defaultCatalogSource = "data/universities.json"
	defaultHTTPTimeout   = 10 * time.Second
)

type Config struct {
	Catalog  *CatalogConfig `mapstructure:"catalog"`
	Matching matcher.Config `mapstructure:"matching"`
	Server   server.Config  `mapstructure:"server"`
}

type CatalogConfig struct {
	Source      string             `mapstructure:"source"`
	HTTPTimeout time.Duration      `mapstructure:"http-timeout"`
	S3          *catalog.S3Options `mapstructure:"s3"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "uni-matcher recommends universities matching a student's academic and financial profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"catalog.source": "UNI_MATCHER_CATALOG_SOURCE",
		"server.listen":  "UNI_MATCHER_LISTEN",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	defaults := matcher.DefaultConfig()
	viper.SetDefault("catalog.source", defaultCatalogSource)
	viper.SetDefault("catalog.http-timeout", defaultHTTPTimeout)
	viper.SetDefault("matching.test-tolerance", defaults.TestTolerance)
	viper.SetDefault("matching.rank-ceiling", defaults.RankCeiling)
	viper.SetDefault("matching.default-limit", defaults.DefaultLimit)
	viper.SetDefault("matching.max-limit", defaults.MaxLimit)
	viper.SetDefault("server.listen", server.DefaultListen)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.shutdown-timeout", server.DefaultShutdownTimeout)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is uni-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().String("catalog", "", "catalog location: a path, an http(s) URL or s3://bucket/key")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("catalog.source", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was set explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Catalog == nil {
		config.Catalog = &CatalogConfig{}
	}

	return config, nil
}

// prepare builds everything the commands share: a logger, the config and a matcher
// over the loaded catalog. Any failure is fatal.
func prepare(ctx context.Context) (*Config, *zap.Logger, *matcher.Matcher) {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	universities, err := catalog.Load(ctx, catalog.Source{
		Location:    config.Catalog.Source,
		HTTPTimeout: config.Catalog.HTTPTimeout,
		S3:          config.Catalog.S3,
	}, zlog)
	if err != nil {
		zlog.Fatal("loading the catalog", append(logger.CatalogFields(config.Catalog.Source),
			zap.Error(err),
			zap.String("hint", "set catalog.source in the config, --catalog flag or UNI_MATCHER_CATALOG_SOURCE"),
		)...)
	}

	m, err := matcher.New(universities, config.Matching, zlog)
	if err != nil {
		zlog.Fatal("creating a matcher", zap.Error(err))
	}

	return config, zlog, m
}
