// Package config loads application configuration from the environment and
// from YAML catalogue files.
//
// Environment loading wraps github.com/joho/godotenv and
// github.com/caarlos0/env/v11: the default .env file is read once, then each
// configuration struct is parsed from its `env` tags and cached by type, so
// repeated Load calls for the same struct are served from memory.
//
//	type ServerConfig struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Catalogues that do not fit into flat variables (external providers,
// clients, local users) are read with LoadYAML. ${VAR} references inside the
// file are expanded from the environment before decoding and unknown fields
// are rejected:
//
//	providers, err := config.LoadYAML[[]external.ProviderConfig]("providers.yaml")
//
// Errors can be compared with errors.Is against ErrParsingConfig,
// ErrNilPointer, ErrReadingFile and ErrParsingFile.
package config
