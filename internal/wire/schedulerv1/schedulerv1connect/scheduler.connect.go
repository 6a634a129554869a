// Package schedulerv1connect wires the scheduler service onto connect. It
// plays the role generated connect glue normally would; the schema is pinned
// so the handler and client are written by hand against the schedulerv1
// codec.
package schedulerv1connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

const (
	// SchedulerServiceName is the fully-qualified protobuf service name.
	SchedulerServiceName = "fieldz.scheduler.v1.SchedulerService"

	// SchedulerScheduleProcedure is the path of the bidi Schedule method.
	SchedulerScheduleProcedure = "/fieldz.scheduler.v1.SchedulerService/Schedule"
)

// SchedulerServiceHandler is the server-side contract for the service.
type SchedulerServiceHandler interface {
	Schedule(ctx context.Context, stream *connect.BidiStream[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput]) error
}

// NewSchedulerServiceHandler builds an HTTP handler for the service, returning
// the path to mount it on.
func NewSchedulerServiceHandler(svc SchedulerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(schedulerv1.Codec{})}, opts...)
	handler := connect.NewBidiStreamHandler(
		SchedulerScheduleProcedure,
		svc.Schedule,
		opts...,
	)
	mux := http.NewServeMux()
	mux.Handle(SchedulerScheduleProcedure, handler)
	return "/" + SchedulerServiceName + "/", mux
}

// SchedulerServiceClient is the client-side contract for the service.
type SchedulerServiceClient interface {
	Schedule(ctx context.Context) *connect.BidiStreamForClient[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput]
}

type schedulerServiceClient struct {
	schedule *connect.Client[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput]
}

// NewSchedulerServiceClient builds a client for the service. The base URL
// should not carry a trailing slash; the gRPC protocol is selected so the
// stream interoperates with tonic and grpcurl peers.
func NewSchedulerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SchedulerServiceClient {
	opts = append([]connect.ClientOption{
		connect.WithCodec(schedulerv1.Codec{}),
		connect.WithGRPC(),
	}, opts...)
	return &schedulerServiceClient{
		schedule: connect.NewClient[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput](
			httpClient,
			baseURL+SchedulerScheduleProcedure,
			opts...,
		),
	}
}

func (c *schedulerServiceClient) Schedule(ctx context.Context) *connect.BidiStreamForClient[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput] {
	return c.schedule.CallBidiStream(ctx)
}
