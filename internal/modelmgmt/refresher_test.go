package modelmgmt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tjfontaine/decision-client/status"
)

// scriptedTransport plays back a fixed sequence of pulls.
type scriptedTransport struct {
	mu      sync.Mutex
	results []*ModelData
	errs    []error
	calls   int
}

func (s *scriptedTransport) GetData(context.Context) (*ModelData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return &ModelData{}, nil
}

func (s *scriptedTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRefresherDeliversPulls(t *testing.T) {
	transport := &scriptedTransport{
		results: []*ModelData{
			{Data: []byte("v1"), RefreshCount: 1},
			{},
			{Data: []byte("v2"), RefreshCount: 2},
		},
	}

	var mu sync.Mutex
	var got []*ModelData
	onData := func(md *ModelData) {
		mu.Lock()
		got = append(got, md)
		mu.Unlock()
	}

	r := NewRefresher(transport, onData, 10*time.Millisecond, nil, nil)
	r.Start()
	deadline := time.Now().Add(2 * time.Second)
	for transport.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) < 3 {
		t.Fatalf("received %d pulls, want at least 3", len(got))
	}
	if string(got[0].Data) != "v1" || got[1].RefreshCount != 0 || string(got[2].Data) != "v2" {
		t.Errorf("pull sequence out of order: %+v", got)
	}
}

func TestRefresherReportsErrorsAndContinues(t *testing.T) {
	transport := &scriptedTransport{
		errs:    []error{errors.New("blob store down"), nil},
		results: []*ModelData{nil, {Data: []byte("v1"), RefreshCount: 1}},
	}

	var mu sync.Mutex
	var reported []*status.Status
	errFn := func(st *status.Status) {
		mu.Lock()
		reported = append(reported, st)
		mu.Unlock()
	}
	delivered := make(chan *ModelData, 8)
	onData := func(md *ModelData) { delivered <- md }

	r := NewRefresher(transport, onData, 10*time.Millisecond, errFn, nil)
	r.Start()

	select {
	case md := <-delivered:
		if string(md.Data) != "v1" {
			t.Errorf("delivered %+v after error, want v1", md)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not recover after a transport error")
	}
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(reported) == 0 {
		t.Fatal("transport error was not reported")
	}
	if reported[0].Code != status.ModelUpdateError {
		t.Errorf("reported code = %s, want ModelUpdateError", reported[0].Code)
	}
}

func TestRefresherStopIsIdempotent(t *testing.T) {
	transport := &scriptedTransport{}
	r := NewRefresher(transport, func(*ModelData) {}, time.Hour, nil, nil)
	r.Start()
	r.Stop()
	r.Stop()

	calls := transport.callCount()
	time.Sleep(20 * time.Millisecond)
	if transport.callCount() != calls {
		t.Error("refresher kept pulling after Stop")
	}
}
