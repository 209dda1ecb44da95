package di

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv parses environment variables into a config struct of type E
//
// Example:
//
//	type Config struct {
//	    TableName string `env:"TABLE_NAME,required"`
//	}
//	cfg, err := di.ParseEnv[Config]()
func ParseEnv[E any]() (e E, err error) {
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}
