package sensor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	w1Good    = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"
	w1BadCRC  = "72 01 4b 46 7f ff 0e 10 57 : crc=00 NO\n72 01 4b 46 7f ff 0e 10 57 t=85000\n"
	w1NoValue = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57\n"
	w1Neg     = "50 ff 4b 46 7f ff 0c 10 1c : crc=1c YES\n50 ff 4b 46 7f ff 0c 10 1c t=-11000\n"
)

func writeSlave(t *testing.T, dir, id, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
	path := ProbePath(dir, id)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseW1(t *testing.T) {
	v, err := parseW1(w1Good)
	require.NoError(t, err)
	assert.InDelta(t, 23.125, v, 1e-9)

	v, err = parseW1(w1Neg)
	require.NoError(t, err)
	assert.InDelta(t, -11.0, v, 1e-9)

	_, err = parseW1(w1BadCRC)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = parseW1(w1NoValue)
	assert.ErrorIs(t, err, ErrNoReading)

	_, err = parseW1("")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestProbeRead(t *testing.T) {
	dir := t.TempDir()
	p := NewProbe(writeSlave(t, dir, "28-0000", w1Good))

	v, err := p.Read()
	require.NoError(t, err)
	assert.InDelta(t, 23.125, v, 1e-9)
}

func TestProbeRetriesUntilReady(t *testing.T) {
	dir := t.TempDir()
	path := writeSlave(t, dir, "28-0000", w1BadCRC)
	p := NewProbe(path)

	var sleeps []time.Duration
	p.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
		if len(sleeps) == 2 {
			require.NoError(t, os.WriteFile(path, []byte(w1Good), 0o644))
		}
	}

	v, err := p.Read()
	require.NoError(t, err)
	assert.InDelta(t, 23.125, v, 1e-9)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, sleeps)
}

func TestProbeGivesUpAfterFiveRetries(t *testing.T) {
	dir := t.TempDir()
	p := NewProbe(writeSlave(t, dir, "28-0000", w1BadCRC))
	sleeps := 0
	p.sleep = func(time.Duration) { sleeps++ }

	_, err := p.Read()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 5, sleeps)
}

func TestProbeMissingFile(t *testing.T) {
	p := NewProbe(filepath.Join(t.TempDir(), "28-gone", "w1_slave"))
	_, err := p.Read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDiscoverAndSelect(t *testing.T) {
	dir := t.TempDir()
	writeSlave(t, dir, "28-bbbb", w1Good)
	writeSlave(t, dir, "28-aaaa", w1Good)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "w1_bus_master1"), 0o755))

	ids, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"28-aaaa", "28-bbbb"}, ids)

	p, e, err := SelectProbes(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, "28-aaaa", p)
	assert.Equal(t, "28-bbbb", e)

	p, e, err = SelectProbes(dir, "", "28-aaaa")
	require.NoError(t, err)
	assert.Equal(t, "28-bbbb", p)
	assert.Equal(t, "28-aaaa", e)

	p, e, err = SelectProbes(dir, "28-x", "28-y")
	require.NoError(t, err)
	assert.Equal(t, "28-x", p)
	assert.Equal(t, "28-y", e)
}

func TestSelectProbesSingle(t *testing.T) {
	dir := t.TempDir()
	writeSlave(t, dir, "28-aaaa", w1Good)

	p, e, err := SelectProbes(dir, "", "")
	require.NoError(t, err)
	assert.Equal(t, "28-aaaa", p)
	assert.Empty(t, e)
}
