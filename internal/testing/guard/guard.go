package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("LOTWORKS_TEST_MODE") == "" {
			_ = os.Setenv("LOTWORKS_TEST_MODE", "1")
		}
	})
}
