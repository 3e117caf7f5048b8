package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"stddocs/internal/config"
)

func TestNewMinIO_RequiresConfig(t *testing.T) {
	valid := config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "standards"}

	cases := map[string]func(c *config.MinIOConfig){
		"endpoint":    func(c *config.MinIOConfig) { c.Endpoint = "" },
		"credentials": func(c *config.MinIOConfig) { c.SecretKey = "" },
		"bucket":      func(c *config.MinIOConfig) { c.Bucket = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			st, err := NewMinIO(context.Background(), cfg)
			assert.ErrorContains(t, err, name)
			assert.Nil(t, st)
		})
	}
}
