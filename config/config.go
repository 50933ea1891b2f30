package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Host                string  `env:"HOST,default=localhost"`
	Port                int     `env:"PORT,default=8080" validate:"gte=1,lte=65535"`
	LogLevel            string  `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	ModelDir            string  `env:"MODEL_DIR,default=./models" validate:"required"`
	BadgerPath          string  `env:"BADGER_PATH"`
	SplitRatio          float64 `env:"SPLIT_RATIO,default=0.8" validate:"gte=0,lte=1"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD,default=0.5" validate:"gte=0,lte=1"`
	SentimentSplit      float64 `env:"SENTIMENT_SPLIT_RATIO,default=0.85" validate:"gte=0,lte=1"`
	SentimentThreshold  float64 `env:"SENTIMENT_THRESHOLD,default=0.75" validate:"gte=0,lte=1"`
	TrainWorkers        int     `env:"TRAIN_WORKERS,default=4" validate:"gte=1"`
	StemLanguage        string  `env:"STEM_LANGUAGE,default=english" validate:"required"`
}

// Load reads an optional .env file, then the environment, then validates the result.
// A missing .env is fine, a malformed one is an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
