package apiserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type schedulerView struct {
	ID        string `json:"id"`
	Kind      uint64 `json:"kind"`
	State     string `json:"state"`
	Used      string `json:"used"`
	Type      string `json:"type"`
	NumPools  int    `json:"num_pools"`
	Size      int    `json:"size"`
	TotalSize int    `json:"total_size"`
}

func (s *Server) viewOf(id string) (schedulerView, bool) {
	inst := s.registry.Scheduler(id)
	if inst == nil {
		return schedulerView{}, false
	}
	return schedulerView{
		ID:        inst.ID(),
		Kind:      inst.Kind(),
		State:     inst.State().String(),
		Used:      inst.Used().String(),
		Type:      inst.Type().String(),
		NumPools:  inst.NumPools(),
		Size:      inst.GetSize(),
		TotalSize: inst.GetTotalSize(),
	}, true
}

func (s *Server) handleListSchedulers(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	insts := s.registry.Schedulers()
	views := make([]schedulerView, 0, len(insts))
	for _, inst := range insts {
		if v, ok := s.viewOf(inst.ID()); ok {
			views = append(views, v)
		}
	}
	respondOK(w, reqID, views)
}

func (s *Server) handleGetScheduler(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	v, ok := s.viewOf(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no scheduler with that id")
		return
	}
	respondOK(w, reqID, v)
}

func (s *Server) handleGetSchedulerSize(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	inst := s.registry.Scheduler(id)
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no scheduler with that id")
		return
	}
	respondOK(w, reqID, map[string]int{
		"size":       inst.GetSize(),
		"total_size": inst.GetTotalSize(),
	})
}

func (s *Server) handleFinishScheduler(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	inst := s.registry.Scheduler(id)
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no scheduler with that id")
		return
	}
	inst.Finish()
	respondOK(w, reqID, map[string]string{"requested": "finish"})
}

func (s *Server) handleExitScheduler(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	inst := s.registry.Scheduler(id)
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no scheduler with that id")
		return
	}
	inst.Exit()
	respondOK(w, reqID, map[string]string{"requested": "exit"})
}

func (s *Server) handleGetSchedulerPool(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	inst := s.registry.Scheduler(id)
	if inst == nil {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no scheduler with that id")
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, "bad_index", "pool index must be an integer")
		return
	}
	pools, err := inst.GetPools(idx, 1)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, "invalid_pool_index", err.Error())
		return
	}
	p := pools[0]
	respondOK(w, reqID, map[string]any{
		"id":         p.ID(),
		"access":     p.AccessMode().String(),
		"size":       p.Size(),
		"total_size": p.TotalSize(),
		"num_scheds": p.NumScheds(),
		"automatic":  p.Automatic(),
	})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	id := chi.URLParam(r, "id")
	p := s.registry.Pool(id)
	if p == nil {
		respondError(w, reqID, http.StatusNotFound, "not_found", "no pool with that id")
		return
	}
	respondOK(w, reqID, map[string]any{
		"id":         p.ID(),
		"access":     p.AccessMode().String(),
		"size":       p.Size(),
		"total_size": p.TotalSize(),
		"num_scheds": p.NumScheds(),
		"automatic":  p.Automatic(),
	})
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()
	if s.audit == nil {
		respondOK(w, reqID, []any{})
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	events, err := s.audit.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, "audit_query_failed", err.Error())
		return
	}
	respondOK(w, reqID, events)
}
