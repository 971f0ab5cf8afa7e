package reconciliation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fee_tolerance_yen: 660\nstrong_name_ratio: 0.9\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, int64(660), p.FeeToleranceYen)
	assert.Equal(t, 0.9, p.StrongNameRatio)
	assert.Equal(t, DefaultPolicy().PartialNameRatio, p.PartialNameRatio, "unset keys keep defaults")
	assert.Equal(t, DefaultPolicy().AmountTolerance, p.AmountTolerance)
}

func TestLoadPolicy_Invalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partial_name_ratio: 0.95\n"), 0o644))
	_, err := LoadPolicy(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fee_tolerance_yen: [\n"), 0o644))
	_, err = LoadPolicy(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "coverage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contain_coverage: 1.5\n"), 0o644))
	_, err = LoadPolicy(path)
	assert.Error(t, err)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
