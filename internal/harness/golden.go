package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario against a temp database and compares its
// trace against testdata/golden/<name>.golden. Expectation failures inside
// the scenario fail the test before the golden comparison runs.
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	res, err := Run(context.Background(), sc, filepath.Join(t.TempDir(), "stash.db"))
	if err != nil {
		t.Fatalf("scenario %s failed to run: %v", sc.Name, err)
	}
	for _, f := range res.Failures {
		t.Errorf("scenario %s: %s", sc.Name, f)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, []byte(res.Trace))
}
