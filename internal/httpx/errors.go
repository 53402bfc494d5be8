package httpx

import (
	"errors"
	"net/http"

	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/freshbooks"
	"github.com/brightforge/portal/internal/observability/logger"
	"github.com/brightforge/portal/internal/store/core"
)

// HandleError es el único punto donde los errores de dominio se traducen a
// status HTTP. Los componentes fallan donde detectan el problema y el error
// sube hasta acá; nadie se recupera en silencio del fallo de otro.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "usuario o password incorrectos")
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "recurso inexistente")
	case errors.Is(err, core.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "el recurso ya existe")
	case errors.Is(err, core.ErrInvalid):
		WriteError(w, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, freshbooks.ErrNotConnected):
		// Distinto del error genérico: la UI ofrece re-autorizar.
		WriteError(w, http.StatusConflict, "not_connected", "freshbooks no está conectado")
	default:
		var ve *auth.ValidationError
		if errors.As(err, &ve) {
			WriteError(w, http.StatusBadRequest, "validation_failed", ve.Error())
			return
		}
		var ue *freshbooks.UpstreamError
		if errors.As(err, &ue) {
			logger.From(r.Context()).Sugar().Errorw("upstream_failure", "op", ue.Op, "status", ue.Status)
			WriteError(w, http.StatusBadGateway, "upstream_error", "el proveedor de billing respondió con error")
			return
		}
		logger.From(r.Context()).Sugar().Errorw("internal_error", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "error interno")
	}
}
