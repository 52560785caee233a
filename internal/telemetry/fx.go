package telemetry

import (
	"github.com/fub-iot/bems/internal/telemetry/dataset"
	"github.com/fub-iot/bems/internal/telemetry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry",
	fx.Provide(
		dataset.New,
		service.New,
	),
)
