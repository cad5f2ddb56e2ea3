package main

import (
	"os"
	"strconv"
	"time"
)

func getDefaultServeOptionInt(envName string, defaultValue int) int {
	envValue := os.Getenv(envName)
	if envValue != "" {
		i, err := strconv.Atoi(envValue)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getDefaultServeOptionDuration(envName string, defaultValue time.Duration) time.Duration {
	envValue := os.Getenv(envName)
	if envValue != "" {
		d, err := time.ParseDuration(envValue)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
