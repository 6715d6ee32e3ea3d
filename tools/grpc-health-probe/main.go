// Command grpc-health-probe asks a booking-service instance for its grpc.health.v1 status
// and exits non-zero unless it is SERVING. Container health checks run it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
)

func main() {
	var (
		addr    = flag.String("addr", config.String("GRPC_ADDR", "localhost:9093"), "booking-service gRPC address")
		service = flag.String("service", config.String("GRPC_HEALTH_SERVICE", ""), "service name to check; empty checks the whole server")
		timeout = flag.Duration("timeout", 3*time.Second, "deadline for the check")
	)
	flag.Parse()

	conn, err := grpcx.Dial(*addr, grpcx.DialOptions{CallTimeout: *timeout})
	if err != nil {
		fatal(fmt.Sprintf("dial %s: %v", *addr, err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: *service})
	if err != nil {
		fatal(fmt.Sprintf("health check failed: %v", err))
	}
	fmt.Println(resp.GetStatus().String())
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
