package main

import (
	"net"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lanikai/alohacast"
)

// loadConfig builds the task configuration: defaults, then the YAML file at
// path if any, then every flag set explicitly on the command line.
func loadConfig(path string, flags *flag.FlagSet) (alohacast.Config, error) {
	cfg := alohacast.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing %s", path)
		}
	}

	if flags.Changed("mode") {
		cfg.Mode = flagMode
	}
	if flags.Changed("width") {
		cfg.Width = flagWidth
	}
	if flags.Changed("height") {
		cfg.Height = flagHeight
	}
	if flags.Changed("interval") {
		cfg.PollInterval = flagInterval
	}
	if flags.Changed("count") {
		cfg.Count = flagCount
	}
	return cfg, cfg.Validate()
}

// displayAddress turns a listen address into something a browser can open.
func displayAddress(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	if name, err := os.Hostname(); err == nil {
		host = name
	} else {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
