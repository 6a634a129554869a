package orchestrator

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

// connectOpener adapts the generated-style connect client to StreamOpener.
type connectOpener struct {
	client schedulerv1connect.SchedulerServiceClient
}

// NewConnectOpener wraps a scheduler client for the orchestrator.
func NewConnectOpener(client schedulerv1connect.SchedulerServiceClient) StreamOpener {
	return &connectOpener{client: client}
}

func (o *connectOpener) Open(ctx context.Context) ScheduleStream {
	return o.client.Schedule(ctx)
}

// NewHTTPClient builds the transport for the scheduler endpoint. Cleartext
// URLs get an h2c transport for local development; https uses the standard
// HTTP/2 stack.
func NewHTTPClient(baseURL string) *http.Client {
	if len(baseURL) >= 8 && baseURL[:8] == "https://" {
		return &http.Client{Transport: &http2.Transport{}}
	}
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// StaticTokenSource returns a fixed token, for CLI use where the desktop
// shell has already completed the login flow.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}
