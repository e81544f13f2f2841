package coremain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nohuhu/typecache/pkg/cache"
)

type cliFlags struct {
	c string
}

var rootCmd = &cobra.Command{
	Use: "typecache",
}

func init() {
	cf := new(cliFlags)
	rootCmd.PersistentFlags().StringVarP(&cf.c, "config", "c", "", "config file")

	var ttl time.Duration
	setCmd := &cobra.Command{
		Use:   "set key value [--ttl duration]",
		Short: "Store a value under a key.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cf, func(c *cache.Cache) error {
				v := parseValue(args[1])
				if ttl > 0 {
					_, err := c.Set(args[0], v, ttl)
					return err
				}
				_, err := c.Set(args[0], v)
				return err
			})
		},
		SilenceUsage: true,
	}
	setCmd.Flags().DurationVar(&ttl, "ttl", 0, "relative expiration, e.g. 30s")

	getCmd := &cobra.Command{
		Use:   "get key",
		Short: "Print the value stored under a key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cf, func(c *cache.Cache) error {
				v, ok, err := c.Get(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("not found")
				}
				printValue(v)
				return nil
			})
		},
		SilenceUsage: true,
	}

	delCmd := &cobra.Command{
		Use:   "del key",
		Short: "Remove the entry under a key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cf, func(c *cache.Cache) error {
				c.Remove(args[0])
				return nil
			})
		},
		SilenceUsage: true,
	}

	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List this cache's keys.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cf, func(c *cache.Cache) error {
				keys, err := c.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Println(k)
				}
				return nil
			})
		},
		SilenceUsage: true,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry of this cache.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cf, func(c *cache.Cache) error {
				c.Clear()
				return nil
			})
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(setCmd, getCmd, delCmd, keysCmd, clearCmd)
}

func AddSubCmd(c *cobra.Command) {
	rootCmd.AddCommand(c)
}

func Run() error {
	return rootCmd.Execute()
}

func withCache(cf *cliFlags, f func(c *cache.Cache) error) error {
	cfg, err := loadConfig(cf.c)
	if err != nil {
		return fmt.Errorf("fail to load config, %w", err)
	}

	c, err := NewCache(cfg)
	if err != nil {
		return fmt.Errorf("fail to init cache, %w", err)
	}
	defer c.Close()
	return f(c)
}

// loadConfig load a config from a file. If filePath is empty, it will
// automatically search and load a file which name start with "config".
// A missing config file is not an error, defaults apply.
func loadConfig(filePath string) (*Config, error) {
	v := viper.New()

	if len(filePath) > 0 {
		v.SetConfigFile(filePath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	cfg := new(Config)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if len(filePath) == 0 && errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	decoderOpt := func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
		cfg.TagName = "yaml"
		cfg.WeaklyTypedInput = true
	}

	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// parseValue interprets a command line argument as a JSON literal, falling
// back to a plain string. "42" is a number, "[1,2]" is an array, "foo" is the
// string "foo".
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func printValue(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		// NaN and friends have no JSON form.
		fmt.Println(v)
		return
	}
	fmt.Println(string(b))
}
