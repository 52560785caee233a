package registry

import (
	"context"

	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/fub-iot/bems/internal/registry/repository"
	"github.com/fub-iot/bems/internal/registry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		repository.Provide,
		service.New,
	),
	fx.Invoke(bootstrap),
)

func bootstrap(lc fx.Lifecycle, svc registrydomain.Service) {
	impl, ok := svc.(*service.Service)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := impl.Migrate(ctx); err != nil {
				return err
			}
			return impl.Seed(ctx)
		},
	})
}
