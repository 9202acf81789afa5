package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/scratchfile-go/internal/export"
	"github.com/lk2023060901/scratchfile-go/internal/json"
	"github.com/lk2023060901/scratchfile-go/internal/project"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func str(tag byte, s string) []byte {
	return cat([]byte{tag}, u32(uint32(len(s))), []byte(s))
}

// sampleProject 构造一个最小的 Scratch 1.4 工程：
// 信息流 {author: "tester"}，内容流 [1] ScratchStageMorph(nil, ref 2) [2] Point(1, 2)。
func sampleProject() []byte {
	info := cat(project.StreamMagic, u32(1),
		[]byte{24}, u32(1), str(10, "author"), str(9, "tester"))
	contents := cat(project.StreamMagic, u32(2),
		[]byte{125, 1, 2, 1, 99, 0, 0, 2},
		[]byte{32, 4, 0, 0, 0, 1, 4, 0, 0, 0, 2})
	return cat([]byte("ScratchV02"), u32(uint32(len(info))), info, contents)
}

func writeSample(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "sample.sb")
	require.NoError(t, os.WriteFile(path, sampleProject(), 0o644))
	return path
}

func TestRunJSON(t *testing.T) {
	path := writeSample(t)
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	var out bytes.Buffer
	err := run(context.Background(), []string{"--metrics-file", metricsFile, path}, &out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, path, doc["path"])
	assert.Equal(t, "Scratch 1.4.0", doc["version"])
	assert.EqualValues(t, 2, doc["objects"])

	stage := doc["stage"].(map[string]any)
	assert.Equal(t, "ScratchStageMorph", stage[export.KeyClass])
	owner := stage["fields"].(map[string]any)["owner"].(map[string]any)
	assert.Equal(t, "Point", owner[export.KeyClass])
	assert.EqualValues(t, 2, owner["y"])

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "scratchfile_decode_records_total")
	assert.Contains(t, string(prom), "scratchfile_project_load_latency")
}

func TestRunCBORWithConfig(t *testing.T) {
	path := writeSample(t)
	conf := filepath.Join(t.TempDir(), "scratchdump.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("dump:\n  format: cbor\n  depth: 1\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config", conf, path}, &out))

	s, err := export.NewCBORSerializer()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, s.Unmarshal(out.Bytes(), &doc))
	stage := doc["stage"].(map[string]any)
	owner := stage["fields"].(map[string]any)["owner"].(map[string]any)
	assert.Equal(t, true, owner[export.KeyTruncated])
}

func TestRunFlagOverridesConfig(t *testing.T) {
	path := writeSample(t)
	conf := filepath.Join(t.TempDir(), "scratchdump.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("dump:\n  format: cbor\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config", conf, "--format", "json", path}, &out))
	assert.True(t, json.Valid(bytes.TrimSpace(out.Bytes())))
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), nil, &out), merr.ErrParameterInvalid)
	assert.ErrorIs(t, run(context.Background(), []string{"--format", "xml", writeSample(t)}, &out), merr.ErrParameterInvalid)
	assert.Error(t, run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "x.sb"}, &out))

	bad := filepath.Join(t.TempDir(), "bad.sb")
	require.NoError(t, os.WriteFile(bad, []byte("NotScratch!"), 0o644))
	out.Reset()
	err := run(context.Background(), []string{writeSample(t), bad}, &out)
	assert.ErrorIs(t, err, merr.ErrUnknownVersion)
	assert.NotEmpty(t, out.Bytes())
}
