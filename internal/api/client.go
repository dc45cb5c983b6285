package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heysubinoy/rpkv/internal/schema"
	"github.com/heysubinoy/rpkv/pkg/kv"
)

// Client is a gRPC client for the rpkv.v1.KeyValue service. Errors are
// translated back into kv error kinds.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Put(ctx context.Context, key, value string) error {
	req := schema.New(schema.PutRequest)
	schema.SetString(req, "key", key)
	schema.SetString(req, "value", value)

	if err := c.cc.Invoke(ctx, putMethod, req, schema.New(schema.PutResponse)); err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	req := schema.New(schema.GetRequest)
	schema.SetString(req, "key", key)

	resp := schema.New(schema.GetResponse)
	if err := c.cc.Invoke(ctx, getMethod, req, resp); err != nil {
		return "", false, fromStatus(err)
	}
	return schema.GetString(resp, "value"), schema.GetBool(resp, "found"), nil
}

func (c *Client) Path(ctx context.Context) (string, error) {
	resp := schema.New(schema.PathResponse)
	if err := c.cc.Invoke(ctx, pathMethod, schema.New(schema.PathRequest), resp); err != nil {
		return "", fromStatus(err)
	}
	return schema.GetString(resp, "path"), nil
}

func fromStatus(err error) error {
	if status.Code(err) == codes.InvalidArgument {
		return fmt.Errorf("%w: %s", kv.ErrEncoding, status.Convert(err).Message())
	}
	return fmt.Errorf("%w: %w", kv.ErrIO, err)
}
