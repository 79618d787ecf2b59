package main

import (
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/research-assistant/internal/config"
)

const redacted = "****"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(redactConfig(*cfg))
	},
}

// redactConfig masks credentials in a copy of c.
func redactConfig(c config.Config) config.Config {
	if c.Anthropic.Key != "" {
		c.Anthropic.Key = redacted
	}
	if c.Gemini.Key != "" {
		c.Gemini.Key = redacted
	}
	if c.Redis.Password != "" {
		c.Redis.Password = redacted
	}
	if u, err := url.Parse(c.Store.DatabaseURL); err == nil && u.User != nil {
		c.Store.DatabaseURL = u.Redacted()
	}
	c.Backends.Order = append([]string(nil), c.Backends.Order...)
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return c
}

func init() {
	rootCmd.AddCommand(configCmd)
}
