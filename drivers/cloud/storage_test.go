package cloud

import (
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Endpoint:  "localhost:9000",
		Bucket:    "preservation",
		Prefix:    "ocfl",
		AccessKey: "a",
		SecretKey: "b",
		Region:    "us-east-1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config did not validate: %s", err)
	}

	cases := []struct {
		name    string
		corrupt func(*Config)
	}{
		{"noEndpoint", func(c *Config) { c.Endpoint = " " }},
		{"schemeInEndpoint", func(c *Config) { c.Endpoint = "http://localhost:9000" }},
		{"noBucket", func(c *Config) { c.Bucket = "" }},
		{"noAccessKey", func(c *Config) { c.AccessKey = "" }},
		{"noSecretKey", func(c *Config) { c.SecretKey = "" }},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			cfg := valid
			c.corrupt(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("should have thrown an error")
			}
		})
	}
}

func TestKeyMapping(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		path   string
		key    string
		dirkey string
	}{
		{"bucketRoot", "", ".", "", ""},
		{"noPrefix", "", "obj1/inventory.json", "obj1/inventory.json", "obj1/inventory.json/"},
		{"withPrefix", "ocfl", "obj1/v1", "ocfl/obj1/v1", "ocfl/obj1/v1/"},
		{"prefixRoot", "ocfl", ".", "ocfl", "ocfl/"},
		{"escapeAttempt", "ocfl", "../../etc", "ocfl/etc", "ocfl/etc/"},
		{"redundantSlashes", "", "a//b/", "a/b", "a/b/"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			s := &Store{prefix: c.prefix}
			if got := s.key(c.path); got != c.key {
				t.Errorf("key: expected %s, got %s", c.key, got)
			}
			if got := s.dirkey(c.path); got != c.dirkey {
				t.Errorf("dirkey: expected %s, got %s", c.dirkey, got)
			}
		})
	}
}
