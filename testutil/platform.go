package testutil

import (
	"time"

	toolbake "github.com/WonderfulSoap/ToolBake-sub004"
)

// NewTestPlatform returns a Platform with a long default timeout and panic
// recovery enabled, suitable for tests.
func NewTestPlatform(defs ...*toolbake.ToolDefinition) *toolbake.Platform {
	p := toolbake.NewPlatform(
		toolbake.WithDefaultTimeout(30*time.Second),
		toolbake.WithRecoverPanics(true),
	)
	for _, def := range defs {
		p.Register(def)
	}
	return p
}
