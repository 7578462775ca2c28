package errors

import (
	"fmt"
)

type ErrWorkerNotFound struct {
	WorkerID string
}

func (e *ErrWorkerNotFound) Error() string {
	return "воркер не найден: " + e.WorkerID
}

func (e *ErrWorkerNotFound) Is(target error) bool {
	_, ok := target.(*ErrWorkerNotFound)
	return ok
}

type ErrNoCapacity struct {
	SessionID string
}

func (e *ErrNoCapacity) Error() string {
	return "нет доступного воркера для сессии: " + e.SessionID
}

func (e *ErrNoCapacity) Is(target error) bool {
	_, ok := target.(*ErrNoCapacity)
	return ok
}

type ErrSessionNotAssigned struct {
	SessionID string
}

func (e *ErrSessionNotAssigned) Error() string {
	return "сессия не назначена ни одному воркеру: " + e.SessionID
}

func (e *ErrSessionNotAssigned) Is(target error) bool {
	_, ok := target.(*ErrSessionNotAssigned)
	return ok
}

type ErrSessionAlreadyAssigned struct {
	SessionID string
	WorkerID  string
}

func (e *ErrSessionAlreadyAssigned) Error() string {
	return fmt.Sprintf("сессия %s уже назначена воркеру %s", e.SessionID, e.WorkerID)
}

type ErrMappingNotFound struct {
	MappingID string
}

func (e *ErrMappingNotFound) Error() string {
	return "маппинг не найден: " + e.MappingID
}

type ErrInvalidPattern struct {
	Pattern string
	Cause   error
}

func (e *ErrInvalidPattern) Error() string {
	return fmt.Sprintf("некорректное регулярное выражение %q: %v", e.Pattern, e.Cause)
}

type ErrPendingMessageNotFound struct {
	PendingID string
}

func (e *ErrPendingMessageNotFound) Error() string {
	return "отложенное сообщение не найдено: " + e.PendingID
}

func (e *ErrPendingMessageNotFound) Is(target error) bool {
	_, ok := target.(*ErrPendingMessageNotFound)
	return ok
}

type ErrPendingAlreadyDecided struct {
	PendingID string
	Status    string
}

func (e *ErrPendingAlreadyDecided) Error() string {
	return fmt.Sprintf("решение по сообщению %s уже принято: %s", e.PendingID, e.Status)
}

func (e *ErrPendingAlreadyDecided) Is(target error) bool {
	_, ok := target.(*ErrPendingAlreadyDecided)
	return ok
}

type ErrTrackerEntryNotFound struct {
	SourceChatID    int64
	SourceMessageID int64
}

func (e *ErrTrackerEntryNotFound) Error() string {
	return fmt.Sprintf("запись трекера не найдена: чат %d, сообщение %d", e.SourceChatID, e.SourceMessageID)
}

func (e *ErrTrackerEntryNotFound) Is(target error) bool {
	_, ok := target.(*ErrTrackerEntryNotFound)
	return ok
}

type ErrUnknownDBAccessType struct {
	AccessType string
}

func (e *ErrUnknownDBAccessType) Error() string {
	return fmt.Sprintf("неизвестный тип доступа к базе данных: %s", e.AccessType)
}

type ErrBuildSQLQuery struct {
	Operation string
	Cause     error
}

func (e *ErrBuildSQLQuery) Error() string {
	return fmt.Sprintf("ошибка при построении SQL запроса (%s): %v", e.Operation, e.Cause)
}

type ErrSQLExecution struct {
	Operation string
	Cause     error
}

func (e *ErrSQLExecution) Error() string {
	return fmt.Sprintf("ошибка при выполнении SQL запроса (%s): %v", e.Operation, e.Cause)
}

type ErrTransportSend struct {
	DestinationChatID int64
	Cause             error
}

func (e *ErrTransportSend) Error() string {
	return fmt.Sprintf("ошибка при отправке сообщения в чат %d: %v", e.DestinationChatID, e.Cause)
}

func (e *ErrTransportSend) Unwrap() error {
	return e.Cause
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP ошибка: статус %d", e.StatusCode)
}
