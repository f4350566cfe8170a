package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// VariableSource resolves the NAME in '${NAME}' placeholders.
type VariableSource interface {
	Lookup(name string) (string, bool)
}

// VariableSourceFunc adapts a function to a VariableSource.
type VariableSourceFunc func(name string) (string, bool)

func (f VariableSourceFunc) Lookup(name string) (string, bool) {
	return f(name)
}

// MapVariables is a static VariableSource.
type MapVariables map[string]string

func (m MapVariables) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// ChainVariables consults each source in order, the first match wins.
type ChainVariables []VariableSource

func (c ChainVariables) Lookup(name string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// EnvVariables resolves placeholders from the process environment.
func EnvVariables() VariableSource {
	return VariableSourceFunc(os.LookupEnv)
}

// DotEnvVariables reads KEY=VALUE pairs from a dotenv file.
// A missing file yields an empty source rather than an error.
func DotEnvVariables(path string) (MapVariables, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return MapVariables{}, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file (%s): %w", path, err)
	}

	return vars, nil
}
