package addr

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mperrors "github.com/joshuafuller/mping/internal/errors"
)

func TestParseMulticastAddress_Valid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"canonical group", "ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d"},
		{"all nodes link local", "ff02::1"},
		{"compressed", "ff12::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, err := ParseMulticastAddress(tt.text)
			require.NoError(t, err)
			require.NotNil(t, ip)
			assert.True(t, ip.IsMulticast())
		})
	}
}

func TestParseMulticastAddress_Idempotent(t *testing.T) {
	// Re-parsing the canonical form of a parsed address yields the same
	// address.
	ip, err := ParseMulticastAddress("ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d")
	require.NoError(t, err)

	again, err := ParseMulticastAddress(ip.String())
	require.NoError(t, err)
	assert.True(t, ip.Equal(again))
}

func TestParseMulticastAddress_RecoversMergedSegments(t *testing.T) {
	// One 8-hex-digit segment where the separator was dropped.
	ip, err := ParseMulticastAddress("ff12c909:3199:e8ba:6f6f:7d23:e6ae:d85d")
	require.NoError(t, err)

	want := net.ParseIP("ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d")
	assert.True(t, want.Equal(ip))

	// The recovered canonical form has no segment longer than 4 digits.
	for _, seg := range strings.Split(ip.String(), ":") {
		assert.LessOrEqual(t, len(seg), 4)
	}
}

func TestParseMulticastAddress_RecoversTwelveDigitSegment(t *testing.T) {
	// A 12-digit segment splits into three hextets.
	ip, err := ParseMulticastAddress("ff12c9093199:e8ba:6f6f:7d23:e6ae:d85d")
	require.NoError(t, err)
	assert.True(t, net.ParseIP("ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d").Equal(ip))
}

func TestParseMulticastAddress_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"garbage", "not-an-address"},
		{"ipv4", "224.0.0.1"},
		{"empty", ""},
		{"unrecoverable segments", "zzzz1111:1:2:3:4:5:6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMulticastAddress(tt.text)
			require.Error(t, err)

			var verr *mperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			// The diagnostic names both the original and the attempted fix.
			assert.Equal(t, tt.text, verr.Value)
			assert.Contains(t, verr.Message, "tried")
		})
	}
}

func TestParseMulticastAddress_NonMulticastStillUsable(t *testing.T) {
	// Outside ff00::/8 parses fine; the join decides later.
	ip, err := ParseMulticastAddress("2001:db8::1")
	require.NoError(t, err)
	assert.False(t, ip.IsMulticast())
}

func TestResolveInterface_Default(t *testing.T) {
	idx, err := ResolveInterface("")
	require.NoError(t, err)
	assert.Equal(t, DefaultInterface, idx)
}

func TestResolveInterface_NumericLiteral(t *testing.T) {
	// Numeric strings resolve literally regardless of the interface table.
	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"1", 1},
		{"424242", 424242},
	}
	for _, tt := range tests {
		idx, err := ResolveInterface(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, idx)
	}
}

func TestResolveInterface_UnknownName(t *testing.T) {
	_, err := ResolveInterface("definitely-not-a-real-interface-name")
	require.Error(t, err)

	var nerr *mperrors.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Contains(t, nerr.Details, "definitely-not-a-real-interface-name")
}

func TestResolveInterface_Loopback(t *testing.T) {
	// Resolving a real interface name yields its index. Loopback is the
	// only name we can rely on, and even that varies by platform, so look
	// it up first.
	ifaces, err := net.Interfaces()
	require.NoError(t, err)

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback == 0 {
			continue
		}
		idx, err := ResolveInterface(iface.Name)
		require.NoError(t, err)
		assert.Equal(t, iface.Index, idx)
		return
	}
	t.Skip("no loopback interface present")
}

func TestSplitLongSegments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ff12c909:3199", "ff12:c909:3199"},
		{"ff12:c909", "ff12:c909"},
		{"ff12c9093199ab:1", "ff12:c909:3199:ab:1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitLongSegments(tt.in))
	}
}
