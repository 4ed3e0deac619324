package netx

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureIPIsValid(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "ipv4", ip: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 loopback", ip: "::1", want: "::1"},
		{name: "ipv4-mapped ipv6", ip: "::ffff:10.0.0.1", want: "10.0.0.1"},
		{name: "out of range octets", ip: "999.999.999.999", wantErr: true},
		{name: "garbage", ip: "not-an-ip", wantErr: true},
		{name: "empty", ip: "", wantErr: true},
		{name: "zone", ip: "fe80::1%eth0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureIPIsValid(tt.ip)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrorValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPublicIP(t *testing.T) {
	assert.True(t, IsPublicIP("8.8.8.8"))
	assert.True(t, IsPublicIP("2001:4860:4860::8888"))
	assert.False(t, IsPublicIP("127.0.0.1"))
	assert.False(t, IsPublicIP("10.1.2.3"))
	assert.False(t, IsPublicIP("::1"))
	assert.False(t, IsPublicIP("nope"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:52311"
	assert.Equal(t, "203.0.113.7", ClientIP(r))

	r.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientIP(r))

	r.RemoteAddr = "198.51.100.2"
	assert.Equal(t, "198.51.100.2", ClientIP(r))
}
