package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/openuas/catchleader/internal/command"
	"github.com/openuas/catchleader/internal/guidance"
)

type fakeEngine struct {
	snap     guidance.StatusSnapshot
	received []command.Command
}

func (f *fakeEngine) Status(context.Context) (guidance.StatusSnapshot, error) {
	return f.snap, nil
}

func (f *fakeEngine) SubmitCommand(cmd command.Command) {
	f.received = append(f.received, cmd)
}

func newTestServer(engine Engine) http.Handler {
	s := NewServer(":0", engine, nil, zap.NewNop())
	return s.setupRoutes()
}

func TestGetStatus(t *testing.T) {
	engine := &fakeEngine{snap: guidance.StatusSnapshot{Mode: "AUTO", SpeedProfile: "cruise"}}
	handler := newTestServer(engine)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got guidance.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Mode != "AUTO" || got.SpeedProfile != "cruise" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestGetVehicles(t *testing.T) {
	engine := &fakeEngine{snap: guidance.StatusSnapshot{
		Vehicles: []guidance.VehicleStatus{{SysID: 1, CompID: 1}, {SysID: 2, CompID: 1}},
	}}
	handler := newTestServer(engine)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/vehicles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Vehicles []guidance.VehicleStatus `json:"vehicles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Vehicles) != 2 {
		t.Errorf("got %d vehicles, want 2", len(got.Vehicles))
	}
}

func TestPostCommand(t *testing.T) {
	engine := &fakeEngine{}
	handler := newTestServer(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/command", strings.NewReader(`{"command":"catch"}`))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(engine.received) != 1 {
		t.Fatalf("engine received %d commands", len(engine.received))
	}
	if _, ok := engine.received[0].(command.Catch); !ok {
		t.Errorf("engine received %#v", engine.received[0])
	}
}

func TestPostCommandRejectsInvalid(t *testing.T) {
	engine := &fakeEngine{}
	handler := newTestServer(engine)

	bodies := []string{
		`{"command":"launch"}`,
		`{"command":""}`,
		`not json`,
		`{"command":"goto 95 0"}`,
	}
	for _, body := range bodies {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/command", strings.NewReader(body))
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if len(engine.received) != 0 {
		t.Errorf("invalid commands reached the engine: %#v", engine.received)
	}
}
