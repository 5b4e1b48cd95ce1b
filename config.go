package main

import (
	"bytes"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncClient"
	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncStructs"
)

type config struct {
	Vesync struct {
		Host            string   `mapstructure:"host"`
		Timeout         int      `mapstructure:"timeout"`
		RefreshInterval int      `mapstructure:"refreshinterval"`
		Modules         []string `mapstructure:"modules"`
		Token           string   `mapstructure:"token"`
		AccountId       string   `mapstructure:"accountid"`
		TimeZone        string   `mapstructure:"timezone"`
		CountryCode     string   `mapstructure:"countrycode"`
		AppVersion      string   `mapstructure:"appversion"`
		Region          string   `mapstructure:"region"`
	} `mapstructure:"vesync"`
	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Influxdb struct {
		Host   string `mapstructure:"host"`
		Token  string `mapstructure:"token"`
		Org    string `mapstructure:"org"`
		Bucket string `mapstructure:"bucket"`
	} `mapstructure:"influxdb"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vesync.host", vesyncClient.DefaultHost)
	v.SetDefault("vesync.timeout", 10)
	v.SetDefault("vesync.refreshinterval", 3600)
	v.SetDefault("vesync.modules", []string{})
	v.SetDefault("vesync.token", "")
	v.SetDefault("vesync.accountid", "")
	v.SetDefault("vesync.timezone", "America/New_York")
	v.SetDefault("vesync.countrycode", "US")
	v.SetDefault("vesync.appversion", "2.8.6")
	v.SetDefault("vesync.region", "US")
	v.SetDefault("metrics.port", "9123")
	v.SetDefault("influxdb.host", "")
	v.SetDefault("influxdb.token", "")
	v.SetDefault("influxdb.org", "")
	v.SetDefault("influxdb.bucket", "")
}

// loadConfig merges defaults, the yaml file at path and VESYNC_ prefixed
// environment variables. A missing file is not an error.
func loadConfig(v *viper.Viper, path string) (config, error) {
	setDefaults(v)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.SetEnvPrefix("vesync")
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	cfg, err := os.ReadFile(path)
	if err != nil {
		sugar.Infof("No configuration file found at %s. Using Default config", path)
	} else if err := v.ReadConfig(bytes.NewBuffer(cfg)); err != nil {
		return config{}, err
	}

	var c config
	if err := v.Unmarshal(&c); err != nil {
		return config{}, err
	}
	return c, nil
}

var secretKeys = [][2]string{
	{"vesync", "token"},
	{"influxdb", "token"},
}

// redactedSettings returns the merged settings with token values masked.
func redactedSettings(v *viper.Viper) map[string]any {
	settings := v.AllSettings()
	for _, key := range secretKeys {
		section, ok := settings[key[0]].(map[string]any)
		if !ok {
			continue
		}
		if s, _ := section[key[1]].(string); s != "" {
			section[key[1]] = "***"
		}
	}
	return settings
}

func (c config) session() vesyncStructs.Session {
	return vesyncStructs.Session{
		Token:       c.Vesync.Token,
		AccountId:   c.Vesync.AccountId,
		TimeZone:    c.Vesync.TimeZone,
		CountryCode: c.Vesync.CountryCode,
		AppVersion:  c.Vesync.AppVersion,
		Region:      c.Vesync.Region,
	}
}

func (c config) timeout() time.Duration {
	return time.Duration(c.Vesync.Timeout) * time.Second
}

func (c config) refreshInterval() time.Duration {
	if c.Vesync.RefreshInterval <= 0 {
		return time.Hour
	}
	return time.Duration(c.Vesync.RefreshInterval) * time.Second
}
