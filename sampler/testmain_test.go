package sampler

import (
	"os"
	"testing"

	"github.com/banshee-data/pointstruct/internal/monitoring"
)

func TestMain(m *testing.M) {
	// The per-forward coverage report would drown test output.
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}
