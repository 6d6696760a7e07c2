package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

const (
	msgInternalError = "внутренняя ошибка сервера"
	msgUnavailable   = "сервис временно недоступен"

	// maxBodyBytes ограничение размера тела запроса
	maxBodyBytes = 1 << 20
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// RejectionResponse тело ответа при отказе правилами бронирования
type RejectionResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

// RespondJSON пишет ответ в JSON
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ошибку с произвольным статусом
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondServiceUnavailable(w http.ResponseWriter) {
	RespondError(w, http.StatusServiceUnavailable, msgUnavailable)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondRejection 409 с машинно-читаемой причиной отказа
// Возвращает false, если err не является отказом
func RespondRejection(w http.ResponseWriter, err error) bool {
	reason, ok := domain.RejectionReason(err)
	if !ok {
		return false
	}
	RespondJSON(w, http.StatusConflict, RejectionResponse{
		Error:     rejectionMessages[reason],
		Reason:    string(reason),
		Retryable: domain.IsSlotUnavailable(err),
	})
	return true
}

var rejectionMessages = map[domain.Reason]string{
	domain.ReasonSlotInPast:                "время урока уже прошло",
	domain.ReasonSlotTooSoon:               "до начала урока осталось слишком мало времени",
	domain.ReasonSlotTooFarAhead:           "на эту дату запись еще не открыта",
	domain.ReasonSlotAlreadyTaken:          "выбранный слот уже занят",
	domain.ReasonDateBlocked:               "преподаватель не работает в эту дату",
	domain.ReasonDayUnavailable:            "в этот день недели занятий нет",
	domain.ReasonSlotNotOffered:            "такого слота нет в расписании",
	domain.ReasonCancellationWindowExpired: "отменить урок уже нельзя",
}

// DecodeJSON читает тело запроса в v, неизвестные поля запрещены
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
