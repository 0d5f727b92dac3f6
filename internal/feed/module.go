package feed

import "go.uber.org/fx"

// Module wires the feed manager into the fx graph.
var Module = fx.Provide(NewManager)
