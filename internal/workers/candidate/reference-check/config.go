// internal/workers/candidate/reference-check/config.go
package referencecheck

import (
	"time"

	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/observability"
)

type Config struct {
	Timeout       time.Duration
	Observability *observability.Observability
	// FailOnLocked fails the job instead of completing it with applied=false
	// when a recruiter has overridden the reference status.
	FailOnLocked bool
}

func LoadConfig(w config.WorkerConfig, obs *observability.Observability) *Config {
	return &Config{Timeout: config.GetDuration(w.Timeout), Observability: obs}
}
