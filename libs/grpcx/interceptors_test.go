package grpcx

import (
	"context"
	"testing"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestServerInterceptorUsesIncomingRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-42"))
	var seen string
	_, err := UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, func(ctx context.Context, req any) (any, error) {
		seen = httpx.RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-42" {
		t.Fatalf("expected req-42, got %q", seen)
	}
}

func TestServerInterceptorMintsRequestID(t *testing.T) {
	var seen string
	_, _ = UnaryServerRequestIDInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		seen = httpx.RequestIDFromContext(ctx)
		return nil, nil
	})
	if len(seen) != 32 {
		t.Fatalf("expected a 32 char id, got %q", seen)
	}
}

func TestClientInterceptorPropagatesRequestID(t *testing.T) {
	ctx := httpx.ContextWithRequestID(context.Background(), "req-7")
	err := UnaryClientRequestIDInterceptor()(ctx, "/x/y", nil, nil, nil, func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		if got := md.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-7" {
			t.Fatalf("unexpected metadata %v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
