// Package guard flips the runtime into test mode before any TestMain runs.
// Import it for side effects from packages whose tests must never start the
// real servers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PRINTFORGE_TEST_MODE") == "" {
			_ = os.Setenv("PRINTFORGE_TEST_MODE", "1")
		}
	})
}
