// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/novaledger/txwallet/ledger"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value  string
		amount uint64
		valid  bool
	}{
		{value: "1000", amount: 1000, valid: true},
		{value: "1000i", amount: 1000, valid: true},
		{value: "1.5Mi", amount: 1_500_000, valid: true},
		{value: " 2Gi ", amount: 2_000_000_000, valid: true},
		{value: "0.001Ki", amount: 1, valid: true},
		{value: "0.5", valid: false},
		{value: "0.0001Ki", valid: false},
		{value: "-1", valid: false},
		{value: "abc", valid: false},
		{value: "18446744073709551616", valid: false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.value, func(t *testing.T) {
			t.Parallel()

			var flag AmountFlag
			err := flag.UnmarshalFlag(test.value)
			if !test.valid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.amount, flag.Amount)
		})
	}

	value, err := NewAmountFlag(42).MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "42i", value)
}

func TestAddressFlag(t *testing.T) {
	t.Parallel()

	addr := ledger.Ed25519Address{0x01, 0x02}
	encoded, err := ledger.Bech32("rms", addr)
	require.NoError(t, err)

	var flag AddressFlag
	require.NoError(t, flag.UnmarshalFlag(encoded))
	require.Equal(t, "rms", flag.HRP)
	require.Equal(t, ledger.Address(addr), flag.Address)

	value, err := flag.MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, encoded, value)

	require.NoError(t, flag.CheckNetwork("rms"))
	require.Error(t, flag.CheckNetwork("smr"))

	require.Error(t, flag.UnmarshalFlag("not an address"))

	var unset AddressFlag
	value, err = unset.MarshalFlag()
	require.NoError(t, err)
	require.Empty(t, value)
	require.NoError(t, unset.CheckNetwork("smr"))
}

func TestExplicitString(t *testing.T) {
	t.Parallel()

	flag := NewExplicitString("default")
	require.False(t, flag.ExplicitlySet())
	require.Equal(t, "fallback", flag.Or("fallback"))

	require.NoError(t, flag.UnmarshalFlag("default"))
	require.True(t, flag.ExplicitlySet())
	require.Equal(t, "default", flag.Or("fallback"))
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "buildtx.conf")

	exists, err := FileExists(path)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, os.WriteFile(path, nil, 0600))
	exists, err = FileExists(path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCleanAndExpandPath(t *testing.T) {
	require.Equal(t, filepath.Join("/home/user", "logs"),
		CleanAndExpandPath("~/logs/", "/home/user"))

	t.Setenv("BUILDTX_TEST_DIR", "/var/lib")
	require.Equal(t, filepath.Join("/var/lib", "buildtx"),
		CleanAndExpandPath("$BUILDTX_TEST_DIR/./buildtx", "/home/user"))
}
