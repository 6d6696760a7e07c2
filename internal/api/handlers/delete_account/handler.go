package delete_account

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
)

const (
	msgUnauthorized = "требуется авторизация"
	msgForbidden    = "удалить учетную запись может только студент"
	msgNotFound     = "учетная запись не найдена"
)

type Handler struct {
	accounts AccountsClient
	logger   Logger
}

func NewHandler(accounts AccountsClient, logger Logger) *Handler {
	return &Handler{
		accounts: accounts,
		logger:   logger,
	}
}

// Handle DELETE /api/v1/me
// Бронирования студента удаляются каскадом на стороне сервиса аккаунтов
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	if !principal.IsStudent() {
		h.logger.Warn("DELETE /me - Access denied: user_id=%s, role=%s", principal.ID, principal.Role)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), principal.ID); err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			h.logger.Warn("DELETE /me - Account not found: user_id=%s", principal.ID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("DELETE /me - Accounts service failure: user_id=%s, error=%v", principal.ID, err)
		handlers.RespondServiceUnavailable(w)
		return
	}

	h.logger.Info("DELETE /me - Account deleted successfully: user_id=%s", principal.ID)
	w.WriteHeader(http.StatusNoContent)
}
