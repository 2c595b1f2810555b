package wgconf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePeerImportable_AcceptsRenderedConfig(t *testing.T) {
	p := testProfile(t)
	rec := testRecord(t, "alice", "10.8.0.2", true)

	text, err := RenderPeerImportable(rec, p)
	require.NoError(t, err)
	assert.NoError(t, ValidatePeerImportable(text))
}

func TestValidatePeerImportable_Violations(t *testing.T) {
	p := testProfile(t)
	rec := testRecord(t, "alice", "10.8.0.2", false)
	good, err := RenderPeerImportable(rec, p)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(string) string
	}{
		{"missing interface section", func(s string) string {
			return strings.Replace(s, "[Interface]", "[Iface]", 1)
		}},
		{"no peer section", func(s string) string {
			return strings.Split(s, "\n[Peer]")[0] + "\n"
		}},
		{"unknown key", func(s string) string {
			return s + "Table = off\n"
		}},
		{"malformed private key", func(s string) string {
			return strings.Replace(s, rec.PrivateKey, "garbage", 1)
		}},
		{"address without prefix", func(s string) string {
			return strings.Replace(s, "Address = 10.8.0.2/32", "Address = 10.8.0.2", 1)
		}},
		{"bad endpoint", func(s string) string {
			return strings.Replace(s, "Endpoint = 203.0.113.10:51820", "Endpoint = 203.0.113.10", 1)
		}},
		{"bad route", func(s string) string {
			return strings.Replace(s, "AllowedIPs = 0.0.0.0/0", "AllowedIPs = everything", 1)
		}},
		{"bad keepalive", func(s string) string {
			return strings.Replace(s, "PersistentKeepalive = 25", "PersistentKeepalive = soon", 1)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePeerImportable(tc.mutate(good))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed), "error %v should wrap ErrValidationFailed", err)
		})
	}
}

func TestValidateServerConfig(t *testing.T) {
	require.NoError(t, ValidateServerConfig(sampleServerConf))

	// A peer without a public key is rejected.
	broken := strings.Replace(sampleServerConf, "PublicKey = cGxhY2Vob2xkZXItLWFsaWNlLXB1YmxpYy1rZXkhIQo=\n", "", 1)
	err := ValidateServerConfig(broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	// Normalization is part of validation: CRLF input is accepted.
	crlf := strings.ReplaceAll(sampleServerConf, "\n", "\r\n")
	assert.NoError(t, ValidateServerConfig(crlf))

	// A BOM-prefixed config is accepted after normalization.
	assert.NoError(t, ValidateServerConfig("\ufeff"+sampleServerConf))
}

func TestValidationError_Message(t *testing.T) {
	err := violation("Peer", "Endpoint", "missing")
	assert.Contains(t, err.Error(), "[Peer] Endpoint")

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}
