package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]any)

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v based on its `env` struct tags.
// Each configuration type is parsed once; later calls copy the cached value.
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := reflect.TypeOf(v).Elem()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = *v
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// Reset drops every cached configuration. Intended for tests.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cache)
}

// LoadYAML reads the YAML file at path into a new T.
func LoadYAML[T any](path string) (T, error) {
	var out T

	f, err := os.Open(path)
	if err != nil {
		return out, errors.Join(ErrReadingFile, err)
	}
	defer f.Close()

	return DecodeYAML[T](f)
}

// DecodeYAML decodes a YAML document from r into a new T after expanding
// ${VAR} references from the environment. Unknown fields are an error.
func DecodeYAML[T any](r io.Reader) (T, error) {
	var out T

	raw, err := io.ReadAll(r)
	if err != nil {
		return out, errors.Join(ErrReadingFile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(raw)))))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return out, errors.Join(ErrParsingFile, err)
	}
	return out, nil
}
