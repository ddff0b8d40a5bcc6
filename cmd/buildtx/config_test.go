// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndSetDebugLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{level: "debug", valid: true},
		{level: "TXAU=trace,WLLT=info", valid: true},
		{level: "verbose"},
		{level: "TXAU"},
		{level: "NOPE=debug"},
		{level: "TXAU=loud"},
	}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if test.valid {
			require.NoError(t, err, test.level)
			continue
		}
		require.Error(t, err, test.level)
	}

	require.NoError(t, parseAndSetDebugLevels("off"))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "buildtx.conf")
	require.NoError(t, os.WriteFile(configFile, []byte(
		"[Application Options]\nparallel=3\nmaxspend=2Mi\n",
	), 0600))

	cfg, files, err := loadConfig([]string{
		"-C", configFile, "--nologfile", "--debuglevel=off",
		"-j", "5", "a.yaml", "b.yaml",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.yaml", "b.yaml"}, files)

	// Command line options take precedence over the config file.
	require.Equal(t, 5, cfg.Parallel)
	require.Equal(t, uint64(2_000_000), cfg.MaxSpend.Amount)
	require.Nil(t, cfg.Remainder.Address)

	_, _, err = loadConfig([]string{"--nologfile", "--debuglevel=off"})
	require.Error(t, err)

	_, _, err = loadConfig([]string{
		"-C", filepath.Join(dir, "missing.conf"), "--nologfile",
		"a.yaml",
	})
	require.Error(t, err)

	_, _, err = loadConfig([]string{
		"-C", configFile, "--nologfile", "--debuglevel=off",
		"-j", "0", "a.yaml",
	})
	require.Error(t, err)
}
