package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so lifecycle decisions (promotion status,
// date windows) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the real wall clock, normalized to UTC.
func System() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return System() }),
)
