package config

import (
	"os"

	"line-bind-bot/internal/logger"

	"github.com/goccy/go-yaml"
)

const (
	LINE_API_SERVER      = "https://api.line.me"
	LINE_DATA_API_SERVER = "https://api-data.line.me"
	SWAPI_SERVER         = "https://swapi.dev/api"
)

func GetConfig(configPath string, cnf *Conf) {
	logger.Debug("Loading configuration")

	input, err := os.Open(configPath)
	if err != nil {
		logger.Crit("Error while reading config!")
	}
	defer input.Close()

	decoder := yaml.NewDecoder(input)
	err = decoder.Decode(cnf)
	if err != nil {
		logger.Crit("Error while decoding config!", err)
	}

	if cnf.Line.ApiAddr == "" {
		cnf.Line.ApiAddr = LINE_API_SERVER
	}
	if cnf.Line.DataApiAddr == "" {
		cnf.Line.DataApiAddr = LINE_DATA_API_SERVER
	}
	if cnf.Lookup.Addr == "" {
		cnf.Lookup.Addr = SWAPI_SERVER
	}
	if cnf.Server.BasePath == "" {
		cnf.Server.BasePath = "/app"
	}
	if cnf.Server.WebhookPath == "" {
		cnf.Server.WebhookPath = "/webhook"
	}
	if cnf.Session.MaxAge == 0 {
		cnf.Session.MaxAge = 3600
	}
}
