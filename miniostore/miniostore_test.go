package miniostore

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kjk/appregistry/regstore/storetest"
	"github.com/kjk/appregistry/require"
	"github.com/minio/minio-go/v7"
)

func TestConfigValidate(t *testing.T) {
	var c *Config
	require.Error(t, c.Validate())
	c = &Config{Endpoint: "s3.example.com", Access: "a", Secret: "s"}
	require.Error(t, c.Validate())
	c.Bucket = "settings"
	require.NoError(t, c.Validate())

	_, err := New(&Config{Endpoint: "s3.example.com"})
	require.Error(t, err)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		config Config
		path   string
		exp    string
	}{
		{Config{}, "Software/Consto/Tests", "Software/Consto/Tests.txt"},
		{Config{Prefix: "apps/"}, "Software/Consto/Tests", "apps/Software/Consto/Tests.txt"},
		{Config{Compress: true}, "/Software/Consto", "Software/Consto.txt.br"},
	}
	for _, test := range tests {
		got := ObjectName(&test.config, test.path)
		require.Equal(t, test.exp, got)
	}
}

func TestBrotli(t *testing.T) {
	d := []byte(strings.Repeat("BookName:s The Book\n", 64))
	compressed, err := brCompress(d)
	require.NoError(t, err)
	require.True(t, len(compressed) < len(d))
	got, err := brDecompress(compressed)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestIsNotExist(t *testing.T) {
	require.True(t, isNotExist(minio.ErrorResponse{Code: "NoSuchKey"}))
	require.False(t, isNotExist(minio.ErrorResponse{Code: "AccessDenied"}))
	require.False(t, isNotExist(errors.New("network is down")))
}

// runs against a real server when APPREGISTRY_TEST_MINIO_ENDPOINT etc. are set
func TestStoreLive(t *testing.T) {
	c := &Config{
		Endpoint: os.Getenv("APPREGISTRY_TEST_MINIO_ENDPOINT"),
		Access:   os.Getenv("APPREGISTRY_TEST_MINIO_ACCESS"),
		Secret:   os.Getenv("APPREGISTRY_TEST_MINIO_SECRET"),
		Bucket:   os.Getenv("APPREGISTRY_TEST_MINIO_BUCKET"),
		Prefix:   "appregistry-test/",
		Compress: true,
		Secure:   true,
	}
	if c.Validate() != nil {
		t.Skip("minio test server not configured")
	}
	s, err := New(c)
	require.NoError(t, err)
	_ = s.Remove("Software/Consto/Tests/Basics")
	defer s.Remove("Software/Consto/Tests/Basics")
	storetest.Run(t, s)
}
