package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// env returns the parsed value of key, or fallback when it is unset or does not parse.
func env[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func envString(key, fallback string) string {
	if raw, ok := os.LookupEnv(key); ok {
		return raw
	}
	return fallback
}

func envInt(key string, fallback int) int {
	return env(key, fallback, strconv.Atoi)
}

func envBool(key string, fallback bool) bool {
	return env(key, fallback, strconv.ParseBool)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	return env(key, fallback, time.ParseDuration)
}

// envList splits a comma separated value, dropping blanks. An all-blank value yields fallback.
func envList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
