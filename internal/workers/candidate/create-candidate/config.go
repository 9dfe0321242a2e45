// internal/workers/candidate/create-candidate/config.go
package createcandidate

import (
	"time"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/observability"
)

type Config struct {
	Timeout       time.Duration
	Observability *observability.Observability
}

func LoadConfig(w config.WorkerConfig, obs *observability.Observability) *Config {
	return &Config{Timeout: config.GetDuration(w.Timeout), Observability: obs}
}
