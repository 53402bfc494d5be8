// Package audit registra la traza de actividad del portal.
// Se escribe SOLO en acciones exitosas; los fallos no dejan registro.
package audit

import (
	"context"

	"github.com/brightforge/portal/internal/observability/logger"
	"github.com/brightforge/portal/internal/store/core"
)

type Recorder struct {
	repo core.Repository
}

func NewRecorder(repo core.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record agrega un registro de actividad. Un fallo acá se loguea pero nunca
// voltea el request que lo originó.
func (r *Recorder) Record(ctx context.Context, actorID, action, detail, entityType, entityID string) {
	if r == nil || r.repo == nil {
		return
	}
	a := &core.Activity{
		ActorID:    actorID,
		Action:     action,
		Detail:     detail,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := r.repo.AppendActivity(ctx, a); err != nil {
		logger.From(ctx).Sugar().Errorw("audit_append_failed", "action", action, "err", err)
	}
}
