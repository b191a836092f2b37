package config

import (
	"context"
	"os"
	"strconv"
)

type Env struct {
	DevLogging bool
}

const (
	// EnvDevLogging enables verbose & console logging
	EnvDevLogging = "DEV_LOGGING"
)

type envContextKey struct{}

func ParseEnv() Env {
	return Env{
		DevLogging: boolEnv(EnvDevLogging),
	}
}

func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envContextKey{}, env)
}

func EnvFromContext(ctx context.Context) Env {
	if env, ok := ctx.Value(envContextKey{}).(Env); ok {
		return env
	}

	return Env{}
}

func boolEnv(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
