package kyc

import "go.uber.org/fx"

var Module = fx.Module("kyc",
	fx.Provide(New),
)
