package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"rides-matcher/internal/domain/ride"
	"rides-matcher/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const departureColumn = "data_hora_partida"

func newTestLogger() *logger.Logger {
	return logger.NewWithOutput("rides-matcher-test", "debug", io.Discard)
}

// newCapturingLogger returns a logger and a func listing the actions written so far.
func newCapturingLogger(t *testing.T) (*logger.Logger, func() []string) {
	t.Helper()
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	})
	actions := func() []string {
		mu.Lock()
		defer mu.Unlock()
		var out []string
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var entry struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("log line is not JSON: %q", line)
			}
			out = append(out, entry.Action)
		}
		return out
	}
	return logger.NewWithOutput("rides-matcher-test", "debug", w), actions
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func at(hour, minute, second int) time.Time {
	return time.Date(2024, time.May, 1, hour, minute, second, 0, time.UTC)
}

func rideRow(id int64, departure time.Time) map[string]any {
	return map[string]any{"id": id, departureColumn: departure, "origem": "Campus"}
}

// fakeRideRepo filters its rows inclusively, the way BETWEEN does.
type fakeRideRepo struct {
	rows  []map[string]any
	err   error
	calls [][2]time.Time
}

func (repo *fakeRideRepo) RidesDepartingBetween(_ context.Context, start, end time.Time) ([]map[string]any, error) {
	repo.calls = append(repo.calls, [2]time.Time{start, end})
	if repo.err != nil {
		return nil, repo.err
	}
	var out []map[string]any
	for _, row := range repo.rows {
		t, ok := row[departureColumn].(time.Time)
		if !ok || (!t.Before(start) && !t.After(end)) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (repo *fakeRideRepo) Ping(context.Context) error { return repo.err }

type fakeRideStore struct {
	candidates []ride.CandidateRide
	centers    []time.Time
}

func (store *fakeRideStore) FindRidesNear(_ context.Context, centerTime time.Time) []ride.CandidateRide {
	store.centers = append(store.centers, centerTime)
	return store.candidates
}

type publishedMessage struct {
	exchange   string
	routingKey string
	msg        amqp.Publishing
}

type fakePublisher struct {
	sent []publishedMessage
	err  error
}

func (pub *fakePublisher) Publish(_ context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	if pub.err != nil {
		return pub.err
	}
	pub.sent = append(pub.sent, publishedMessage{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

type fakeNotifier struct {
	outcomes []ride.MatchOutcome
	result   bool
}

func (n *fakeNotifier) Publish(_ context.Context, outcome ride.MatchOutcome) bool {
	n.outcomes = append(n.outcomes, outcome)
	return n.result
}

type engineFunc func(ctx context.Context, request ride.RideRequest) ([]ride.CandidateRide, error)

func (f engineFunc) Evaluate(ctx context.Context, request ride.RideRequest) ([]ride.CandidateRide, error) {
	return f(ctx, request)
}

// fakeAcknowledger records how each delivery was settled.
type fakeAcknowledger struct {
	acks     []uint64
	nacks    []uint64
	requeues []bool
	err      error
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	if a.err != nil {
		return a.err
	}
	a.acks = append(a.acks, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	if a.err != nil {
		return a.err
	}
	a.nacks = append(a.nacks, tag)
	a.requeues = append(a.requeues, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newDelivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  tag,
		ContentType:  "application/json",
		Body:         []byte(body),
	}
}

// fakeSource hands its deliveries to the handler, then reports err or waits for ctx.
type fakeSource struct {
	deliveries []amqp.Delivery
	errs       []error
	calls      int
	queues     []string
	tags       []string
	prefetches []int
	onDrained  func()
}

func (src *fakeSource) Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery)) error {
	src.calls++
	src.queues = append(src.queues, queue)
	src.tags = append(src.tags, consumerTag)
	src.prefetches = append(src.prefetches, prefetch)

	for _, d := range src.deliveries {
		handler(ctx, d)
	}
	src.deliveries = nil

	if len(src.errs) > 0 {
		err := src.errs[0]
		src.errs = src.errs[1:]
		return err
	}
	if src.onDrained != nil {
		src.onDrained()
	}
	<-ctx.Done()
	return nil
}
