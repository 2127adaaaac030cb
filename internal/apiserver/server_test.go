package apiserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/me/esrt/internal/scheddef"
	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeES stands in for the execution stream a scheduler registered
// with the daemon would normally be attached to, so HasToStop doesn't
// reject these tests as running outside one.
type fakeES struct{}

func (fakeES) LockTopSched()          {}
func (fakeES) UnlockTopSched()        {}
func (fakeES) HasMainULT() bool       { return false }
func (fakeES) SwitchToMain()          {}
func (fakeES) Dispatch(pool.WorkUnit) {}

func newTestServer(t *testing.T) (*Server, *scheduler.Instance) {
	t.Helper()
	reg := scheddef.NewRegistry(testLogger())
	inst, err := scheduler.CreateBasic(reg, model.SchedBasic, nil, testLogger())
	if err != nil {
		t.Fatalf("CreateBasic: %v", err)
	}
	inst.AttachES(fakeES{})
	apiReg := NewRegistry()
	apiReg.RegisterScheduler(inst)
	apiReg.RegisterPool(inst.Pool(0))
	return New(apiReg, testLogger()), inst
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var e envelope
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return e
}

func TestHandleListSchedulers(t *testing.T) {
	s, inst := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedulers", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body)
	if env.Status != "ok" {
		t.Fatalf("status = %q, want ok", env.Status)
	}
	raw, _ := json.Marshal(env.Data)
	var views []schedulerView
	if err := json.Unmarshal(raw, &views); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if len(views) != 1 || views[0].ID != inst.ID() {
		t.Fatalf("views = %+v, want one entry for %s", views, inst.ID())
	}
}

func TestHandleGetSchedulerNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedulers/nope", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleFinishSchedulerSetsRequest(t *testing.T) {
	s, inst := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedulers/"+inst.ID()+"/finish", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stop, _ := inst.HasToStop()
	if !stop {
		t.Fatalf("HasToStop() = false after finish request on drained pool, want true")
	}
}

func TestHandleGetPool(t *testing.T) {
	s, inst := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pools/"+inst.Pool(0).ID(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleGetSchedulerPool(t *testing.T) {
	s, inst := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedulers/"+inst.ID()+"/pools/0", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleGetSchedulerPoolOutOfRange(t *testing.T) {
	s, inst := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedulers/"+inst.ID()+"/pools/5", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
