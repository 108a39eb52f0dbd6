// Package nav is the navigation boundary. The hosting shell owns the
// actual view stack; this core only requests transitions after login,
// game join, and game creation.
package nav

import (
	"go.uber.org/zap"

	"github.com/veldt-labs/commandzone/internal/obslog"
)

// Navigator requests a view transition.
type Navigator interface {
	Push(path string)
}

// Func adapts a function to the Navigator interface.
type Func func(path string)

func (f Func) Push(path string) { f(path) }

// Log records transitions without acting on them; the headless client
// and tests use it.
type Log struct{}

func (Log) Push(path string) {
	obslog.L().Info("navigate", zap.String("path", path))
}
