package cloud

import (
	"strings"

	"github.com/pkg/errors"
)

// Config locates an S3 compatible bucket holding OCFL objects
type Config struct {
	Endpoint  string // host:port of the S3 endpoint, without a scheme
	Bucket    string
	Prefix    string // key prefix under which object trees live, may be empty
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Validate checks that the config is usable for opening a connection
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return errors.Errorf("endpoint must not include a scheme: %s", c.Endpoint)
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	return nil
}
