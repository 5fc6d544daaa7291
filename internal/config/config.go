package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Site   Site   `yaml:"site"`
	Server Server `yaml:"server"`
}

type Site struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"baseURL"`
}

type Server struct {
	Listen          string `yaml:"listen"`
	SubmissionsRoot string `yaml:"submissionsRoot"`
	ModeratorsPath  string `yaml:"moderatorsPath"`
	UsersPath       string `yaml:"usersPath"`
	TemplatesGlob   string `yaml:"templatesGlob"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisDB         int    `yaml:"redisDB"`
	MemcachedAddr   string `yaml:"memcachedAddr"`
	EnableTrace     bool   `yaml:"enableTrace"`
	TraceEndpoint   string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8080"
	}
	if config.Site.Title == "" {
		config.Site.Title = "DANDI External Resources"
	}

	return config, nil
}
