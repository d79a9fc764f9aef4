package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "RED_NUMBERS_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are not an error; it reports which files were loaded.
func LoadDotEnv(files ...string) []string {
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

// FromEnv overlays RED_NUMBERS_* environment variables onto base.
// Unparseable values keep the base value.
func FromEnv(base Config) Config {
	c := base.Clone()

	s := getEnvAsIntOrDefault("S_MIN", c.Color.Range1.Lower.S)
	v := getEnvAsIntOrDefault("V_MIN", c.Color.Range1.Lower.V)
	c = c.WithSaturationValue(s, v)
	c.Color.KernelSize = getEnvAsIntOrDefault("KERNEL_SIZE", c.Color.KernelSize)

	c.Geometry.MinArea = getEnvAsIntOrDefault("MIN_CONTOUR_AREA", c.Geometry.MinArea)
	c.Geometry.MinWidth = getEnvAsIntOrDefault("MIN_CONTOUR_WIDTH", c.Geometry.MinWidth)
	c.Geometry.MinHeight = getEnvAsIntOrDefault("MIN_CONTOUR_HEIGHT", c.Geometry.MinHeight)
	c.Geometry.MinRatio = getEnvAsFloatOrDefault("MIN_ASPECT_RATIO", c.Geometry.MinRatio)
	c.Geometry.MaxRatio = getEnvAsFloatOrDefault("MAX_ASPECT_RATIO", c.Geometry.MaxRatio)

	c.Numbers.PaddingX = getEnvAsIntOrDefault("PADDING_HORIZONTAL", c.Numbers.PaddingX)
	c.Numbers.PaddingY = getEnvAsIntOrDefault("PADDING_VERTICAL", c.Numbers.PaddingY)
	c.Numbers.MinDigits = getEnvAsIntOrDefault("MIN_DIGITS", c.Numbers.MinDigits)
	c.Numbers.MaxDigits = getEnvAsIntOrDefault("MAX_DIGITS", c.Numbers.MaxDigits)

	c.Motor.TopFraction = getEnvAsFloatOrDefault("MOTOR_TOP_SECTION", c.Motor.TopFraction)
	c.Motor.MinWidth = getEnvAsIntOrDefault("MOTOR_MIN_WIDTH", c.Motor.MinWidth)
	c.Motor.MaxWidth = getEnvAsIntOrDefault("MOTOR_MAX_WIDTH", c.Motor.MaxWidth)
	c.Motor.MinHeight = getEnvAsIntOrDefault("MOTOR_MIN_HEIGHT", c.Motor.MinHeight)
	c.Motor.MaxHeight = getEnvAsIntOrDefault("MOTOR_MAX_HEIGHT", c.Motor.MaxHeight)
	c.Motor.MinLength = getEnvAsIntOrDefault("MOTOR_MIN_LENGTH", c.Motor.MinLength)
	c.Motor.Terminators = getEnvAsListOrDefault("MOTOR_TERMINATORS", c.Motor.Terminators)

	c.OCR.Language = getEnvOrDefault("OCR_LANGUAGE", c.OCR.Language)
	c.OCR.TessdataPrefix = getEnvOrDefault("TESSDATA_PREFIX", c.OCR.TessdataPrefix)

	c.Extensions = getEnvAsListOrDefault("EXTENSIONS", c.Extensions)
	c.Workers = getEnvAsIntOrDefault("WORKERS", c.Workers)
	c.ProgressEvery = getEnvAsIntOrDefault("PROGRESS_EVERY", c.ProgressEvery)
	c.Debug = getEnvAsBoolOrDefault("DEBUG", c.Debug)
	return c
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(EnvPrefix + key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(EnvPrefix+key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(EnvPrefix + key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsListOrDefault splits a comma-separated variable, dropping empty items.
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	raw := os.Getenv(EnvPrefix + key)
	if raw == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
