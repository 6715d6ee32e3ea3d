package grpcx

// RequestIDMetadataKey matches httpx.RequestIDHeader, lowercased as gRPC metadata requires.
const RequestIDMetadataKey = "x-request-id"
