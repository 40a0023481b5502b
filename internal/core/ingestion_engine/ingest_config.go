package ingestion_engine

import (
	"fmt"
	"net/url"
	"time"
)

// DispatchConfig tunes the outbound ingestion call.
//
// Endpoint:     absolute URL that accepts {documentId, fileUrl}.
// Timeout:      upper bound for the whole request including the body read.
// MaxErrorBody: how many bytes of an error response are kept for the message.
type DispatchConfig struct {
	Endpoint     string
	Timeout      time.Duration
	MaxErrorBody int64
}

func (c DispatchConfig) validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ingestion endpoint %q is not an absolute http(s) URL", c.Endpoint)
	}
	return nil
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxErrorBody <= 0 {
		c.MaxErrorBody = 512
	}
	return c
}
