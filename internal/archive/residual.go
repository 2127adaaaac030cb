package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/esrt/internal/scheduler"
)

// poolSnapshot captures one bound pool's size at archive time.
type poolSnapshot struct {
	ID        string `json:"id"`
	Size      int    `json:"size"`
	TotalSize int    `json:"total_size"`
}

// residualSnapshot is what ArchiveResidual serializes: a scheduler's
// final identity and whatever work remained in its pools. A scheduler
// only ever has residual work if it was stopped via Exit rather than
// having drained naturally via Finish.
type residualSnapshot struct {
	SchedID     string         `json:"sched_id"`
	Kind        uint64         `json:"kind"`
	State       string         `json:"state"`
	ArchivedAt  time.Time      `json:"archived_at"`
	Pools       []poolSnapshot `json:"pools"`
}

// ArchiveResidual snapshots inst's terminal state and any work left in
// its pools, and ships it to sink. It does not alter has_to_stop or any
// other core termination semantics — it is purely an observer called
// after a scheduler has already reached SchedTerminated, layered above
// the core the same way a deploy pipeline's artifact upload is layered
// above the build it archives.
func ArchiveResidual(ctx context.Context, inst *scheduler.Instance, sink Sink) (string, error) {
	if sink == nil {
		return "", nil
	}
	snap := residualSnapshot{
		SchedID:    inst.ID(),
		Kind:       inst.Kind(),
		State:      inst.State().String(),
		ArchivedAt: time.Now().UTC(),
	}
	for _, p := range inst.Pools() {
		snap.Pools = append(snap.Pools, poolSnapshot{
			ID:        p.ID(),
			Size:      p.Size(),
			TotalSize: p.TotalSize(),
		})
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("archive: marshal residual snapshot: %w", err)
	}
	return sink.Archive(ctx, inst.ID(), data)
}
