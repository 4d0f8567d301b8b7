package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yonmoku/config"
)

type Client struct {
	// NATS connection
	nc      *nats.Conn
	subject string

	url      string
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		url:      cfg.GetString(config.ConfigNatsURL),
		subject:  cfg.GetString(config.ConfigBotSubject),
		Timeout:  10 * time.Second,
		Attempts: 5,
		Delay:    500 * time.Millisecond,
	}
}

// Connect dials the NATS server, backing off between failed attempts.
func (c *Client) Connect(ctx context.Context) error {
	nc, err := retry.DoWithData(
		func() (*nats.Conn, error) {
			return nats.Connect(c.url, nats.Name("yonmoku-client"))
		},
		retry.Context(ctx),
		retry.Attempts(c.Attempts),
		retry.Delay(c.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Err(err).Uint("n", n).Str("url", c.url).Msg("nats-connect-retry")
		}),
	)
	if err != nil {
		return err
	}
	c.nc = nc
	return nil
}

func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
	}
}

// Send a position to the bot and get its answer back.
func (c *Client) Request(ctx context.Context, req Request) (*Response, error) {
	if c.nc == nil {
		return nil, errors.New("client is not connected")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	res, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	return decodeResponse(res.Data)
}

func decodeResponse(data []byte) (*Response, error) {
	resp := &Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return resp, errors.New("bot returned: " + resp.Error)
	}
	return resp, nil
}
