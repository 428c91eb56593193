package dbcapabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHost(t *testing.T) {
	tests := []struct {
		input string
		host  string
		token string
	}{
		{"127.0.0.1:3307", "127.0.0.1", "3307"},
		{"127.0.0.1", "127.0.0.1", ""},
		{"10.0.0.5:/tmp/mysql.sock", "10.0.0.5", "/tmp/mysql.sock"},
		{"[::1]:3307", "[::1]", "3307"},
		{"[::1]", "[::1]", ""},
		{"[fe80::1%eth0]:3306", "[fe80::1%eth0]", "3306"},
		{"db.example.com", "db.example.com", ""},
		{"db.example.com:3310", "db.example.com", "3310"},
		{"p:db.example.com:3306", "p:db.example.com:3306", ""},
		{"tcp://db.example.com:3306", "tcp://db.example.com", "3306"},
		{"localhost:/var/run/mysqld/mysqld.sock", "localhost", "/var/run/mysqld/mysqld.sock"},
		{":3307", "localhost", "3307"},
		{":/tmp/mysql.sock", "localhost", "/tmp/mysql.sock"},
		{"::1", "::1", ""},
		{"2001:db8::7", "2001:db8::7", ""},
		{"", "localhost", ""},
		{"  db.internal  ", "db.internal", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spec := ParseHost(tt.input)
			assert.Equal(t, tt.host, spec.Host)
			assert.Equal(t, tt.token, spec.PortToken)
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		socket   string
		expected Endpoint
	}{
		{
			name:     "ipv4 with port",
			host:     "127.0.0.1:3307",
			expected: Endpoint{Host: "127.0.0.1", Port: 3307},
		},
		{
			name:     "bracketed ipv6 with port",
			host:     "[::1]:3307",
			expected: Endpoint{Host: "[::1]", Port: 3307},
		},
		{
			name:     "hostname uses default port",
			host:     "db.example.com",
			expected: Endpoint{Host: "db.example.com", Port: 3306},
		},
		{
			name:     "bare port",
			host:     ":3307",
			expected: Endpoint{Host: "localhost", Port: 3307},
		},
		{
			name:     "configured port",
			host:     "db.example.com",
			port:     3390,
			expected: Endpoint{Host: "db.example.com", Port: 3390},
		},
		{
			name:     "embedded port beats configured port",
			host:     "db.example.com:3311",
			port:     3390,
			expected: Endpoint{Host: "db.example.com", Port: 3311},
		},
		{
			name:     "socket token in host",
			host:     "localhost:/tmp/mysql.sock",
			port:     3390,
			expected: Endpoint{Host: "localhost", Socket: "/tmp/mysql.sock"},
		},
		{
			name:     "configured socket",
			host:     "localhost",
			socket:   "/run/mysqld/mysqld.sock",
			expected: Endpoint{Host: "localhost", Socket: "/run/mysqld/mysqld.sock"},
		},
		{
			name:     "naked ipv6 keeps defaults",
			host:     "fe80::1",
			expected: Endpoint{Host: "fe80::1", Port: 3306},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := ResolveEndpoint(tt.host, tt.port, tt.socket, 3306)
			assert.Equal(t, tt.expected, ep)
			assert.False(t, ep.Port != 0 && ep.Socket != "", "port and socket must not both be set")
		})
	}
}

func TestEndpointAddress(t *testing.T) {
	assert.Equal(t, "127.0.0.1:3307", Endpoint{Host: "127.0.0.1", Port: 3307}.Address())
	assert.Equal(t, "[::1]:3307", Endpoint{Host: "[::1]", Port: 3307}.Address())
	assert.Equal(t, "[fe80::1]:3306", Endpoint{Host: "fe80::1", Port: 3306}.Address())
	assert.Equal(t, "db.example.com:3306", Endpoint{Host: "tcp://db.example.com", Port: 3306}.Address())
	assert.Equal(t, "/tmp/mysql.sock", Endpoint{Host: "localhost", Socket: "/tmp/mysql.sock"}.Address())
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "localhost", NormalizeHost("127.0.0.1"))
	assert.Equal(t, "localhost", NormalizeHost("127.4.5.6"))
	assert.Equal(t, "localhost", NormalizeHost("[::1]"))
	assert.Equal(t, "localhost", NormalizeHost(" LocalHost "))
	assert.Equal(t, "db.example.com", NormalizeHost("DB.example.com"))
	assert.True(t, IsLocalhostVariant("::1"))
	assert.False(t, IsLocalhostVariant("10.0.0.1"))
}
