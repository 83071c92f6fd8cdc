package upload

import (
	"github.com/brizzai/auth-gateway/internal/requester"
	"go.uber.org/fx"
)

var Module = fx.Module("upload",
	fx.Provide(
		NewHandler,
		func(r *requester.HTTPRequester) Forwarder { return r },
	),
)
