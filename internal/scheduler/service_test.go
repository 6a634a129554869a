package scheduler

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

func newH2CClient() *http.Client {
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

func startServer(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	path, handler := schedulerv1connect.NewSchedulerServiceHandler(NewService())
	mux.Handle(path, handler)

	srv := httptest.NewUnstartedServer(h2c.NewHandler(mux, &http2.Server{}))
	srv.Start()
	t.Cleanup(srv.Close)
	return srv.URL
}

func matchInput(id uint32) *schedulerv1.ScheduledInput {
	hour := int64(time.Hour / time.Millisecond)
	slots := make([]*schedulerv1.TimeSlot, 8)
	for i := range slots {
		slots[i] = &schedulerv1.TimeSlot{
			Start:       int64(i) * hour,
			End:         int64(i+1) * hour,
			Concurrency: 1,
		}
	}
	return &schedulerv1.ScheduledInput{
		UniqueID: id,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{
			{Teams: []*schedulerv1.Team{
				{UniqueID: 1}, {UniqueID: 2}, {UniqueID: 3}, {UniqueID: 4},
			}},
		},
		Fields: []*schedulerv1.Field{{UniqueID: 1, TimeSlots: slots}},
	}
}

func TestScheduleStreamRoundTrip(t *testing.T) {
	url := startServer(t)
	client := schedulerv1connect.NewSchedulerServiceClient(newH2CClient(), url)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stream := client.Schedule(ctx)
	for id := uint32(1); id <= 3; id++ {
		if err := stream.Send(matchInput(id)); err != nil {
			t.Fatalf("Send(%d) error = %v", id, err)
		}
	}
	if err := stream.CloseRequest(); err != nil {
		t.Fatalf("CloseRequest() error = %v", err)
	}

	// outputs arrive in input order by unique id
	for want := uint32(1); want <= 3; want++ {
		out, err := stream.Receive()
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if out.UniqueID != want {
			t.Errorf("UniqueID = %d, want %d", out.UniqueID, want)
		}
		if len(out.TimeSlots) != 6 {
			t.Errorf("len(TimeSlots) = %d, want 6", len(out.TimeSlots))
		}
	}
	if err := stream.CloseResponse(); err != nil {
		t.Errorf("CloseResponse() error = %v", err)
	}
}

func TestScheduleStreamSurvivesMalformedInput(t *testing.T) {
	url := startServer(t)
	client := schedulerv1connect.NewSchedulerServiceClient(newH2CClient(), url)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stream := client.Schedule(ctx)

	bad := matchInput(1)
	bad.TeamGroups[0].Teams[1].UniqueID = 1 // duplicate team id
	if err := stream.Send(bad); err != nil {
		t.Fatalf("Send(bad) error = %v", err)
	}
	if err := stream.Send(matchInput(2)); err != nil {
		t.Fatalf("Send(good) error = %v", err)
	}
	if err := stream.CloseRequest(); err != nil {
		t.Fatalf("CloseRequest() error = %v", err)
	}

	first, err := stream.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if first.UniqueID != 1 || len(first.TimeSlots) != 0 {
		t.Errorf("malformed input answer = id %d with %d slots, want empty id 1",
			first.UniqueID, len(first.TimeSlots))
	}

	second, err := stream.Receive()
	if err != nil {
		t.Fatalf("Receive() after malformed input error = %v", err)
	}
	if second.UniqueID != 2 || len(second.TimeSlots) == 0 {
		t.Errorf("stream did not recover: id %d with %d slots", second.UniqueID, len(second.TimeSlots))
	}
}
