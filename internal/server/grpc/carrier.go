package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// metadataCarrier reads the session key from incoming metadata and collects
// changes for the response header. A cleared key is sent back empty.
type metadataCarrier struct {
	in    metadata.MD
	out   metadata.MD
	dirty bool
}

func newMetadataCarrier(ctx context.Context) *metadataCarrier {
	md, _ := metadata.FromIncomingContext(ctx)
	return &metadataCarrier{in: md, out: metadata.MD{}}
}

func (c *metadataCarrier) Get(name string) string {
	if v, ok := c.out[name]; ok {
		if len(v) == 0 {
			return ""
		}
		return v[0]
	}
	return firstValue(c.in, name)
}

func (c *metadataCarrier) Set(name, value string) {
	c.out.Set(name, value)
	c.dirty = true
}

func (c *metadataCarrier) Del(name string) {
	c.out.Set(name, "")
	c.dirty = true
}

// flush sends collected changes as response header metadata.
func (c *metadataCarrier) flush(ctx context.Context) error {
	if !c.dirty {
		return nil
	}
	return grpc.SetHeader(ctx, c.out)
}

func firstValue(md metadata.MD, name string) string {
	if md == nil {
		return ""
	}
	if v := md.Get(name); len(v) > 0 {
		return v[0]
	}
	return ""
}
