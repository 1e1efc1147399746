package scenarios

import (
	"path/filepath"
	"testing"

	"github.com/mkv-git/openttd/core/scenario"
)

func TestScenario(t *testing.T) {
	files, err := Files("testdata")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenarios found")
	}
	for _, f := range files {
		sc, err := scenario.Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(filepath.Base(f), func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}
