package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	keyAppName  = "app_name"
	keyBaseURL  = "api.base_url"
	keyTimeout  = "api.timeout"
	keyDataDir  = "data_dir"
	keyLogLevel = "log.level"
	keyEnv      = "env"

	envPrefix = "NSID"
)

// Load builds a Config from defaults, an optional YAML config file and
// NSID_-prefixed environment variables (e.g. NSID_API_BASE_URL). An
// empty configFile means defaults and environment only.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyAppName, "NSID Wallet")
	v.SetDefault(keyBaseURL, "http://localhost:8000/api/")
	v.SetDefault(keyTimeout, "15s")
	v.SetDefault(keyDataDir, defaultDataDir())
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyEnv, "DEV")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %q", configFile)
		}
	}
	return &walletVars{v: v}, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nsid-wallet"
	}
	return filepath.Join(home, ".nsid-wallet")
}

type walletVars struct {
	v *viper.Viper
}

var _ Config = (*walletVars)(nil)

func (c *walletVars) GetAppName() string {
	return c.v.GetString(keyAppName)
}

func (c *walletVars) GetDataDir() string {
	return c.v.GetString(keyDataDir)
}

func (c *walletVars) GetEnv() string {
	return c.v.GetString(keyEnv)
}

func (c *walletVars) GetBaseURL() string {
	url := c.v.GetString(keyBaseURL)
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}

func (c *walletVars) GetRequestTimeout() time.Duration {
	timeout := c.v.GetDuration(keyTimeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return timeout
}

func (c *walletVars) GetLogLevel() string {
	return c.v.GetString(keyLogLevel)
}
