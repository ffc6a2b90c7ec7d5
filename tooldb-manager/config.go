package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hzeller/tooldb/feeds"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "freecad")

	// Feeds and speeds
	v.SetDefault("feeds.slotting-ratio", feeds.DefaultSlottingRatio)
	v.SetDefault("feeds.material", "")
	v.SetDefault("feeds.catalog", "")

	// HTTP server
	v.SetDefault("serve.port", 2000)
	v.SetDefault("serve.site-prefix", "")
}

// loadConfig reads the config file, if any, and the TOOLDB_* environment.
// An explicitly given file must exist; the default one is optional.
func loadConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "tooldb"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("tooldb")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config")
		}
	} else {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}
	return v, nil
}

// newEngine builds the feeds engine from the configured catalog and
// slotting ratio.
func newEngine(v *viper.Viper) (*feeds.Engine, error) {
	catalog := feeds.DefaultCatalog()
	if path := v.GetString("feeds.catalog"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "material catalog")
		}
		defer f.Close()
		if catalog, err = feeds.LoadCatalog(f); err != nil {
			return nil, errors.Wrapf(err, "material catalog %s", path)
		}
	}
	ratio := v.GetFloat64("feeds.slotting-ratio")
	if ratio <= 0 || ratio > 1 {
		return nil, errors.Errorf("feeds.slotting-ratio %v is not in (0, 1]", ratio)
	}
	return feeds.NewEngine(catalog, feeds.WithSlottingRatio(ratio)), nil
}
