package minter

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Configuration struct {
	Owner  string `toml:"owner"`
	Listen string `toml:"listen"`
}

func LoadConfig(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, err
	}
	if conf.Owner == "" {
		return nil, fmt.Errorf("missing owner address in %s", path)
	}
	if conf.Listen == "" {
		conf.Listen = ":7001"
	}
	return &conf, nil
}
