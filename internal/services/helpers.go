package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"equipment-system/internal/entities"
	"equipment-system/internal/lifecycle"
	"equipment-system/internal/repositories"
	apperrors "equipment-system/pkg/errors"
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/metrics"
	"equipment-system/pkg/types"
)

const timestampLayout = "2006-01-02 15:04:05"

// EventPublisher - то, что сервисам нужно от шины событий.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// unitTransition - смена статуса единицы с записью в историю.
type unitTransition struct {
	unit    *entities.Unit
	event   lifecycle.Event
	to      lifecycle.Status
	refKind string
	refID   uint64
	actor   string
}

type appliedTransition struct {
	event    lifecycle.Event
	from, to lifecycle.Status
}

// transitionLog копит смены статусов одной попытки транзакции. В метрики они попадают после коммита.
type transitionLog []appliedTransition

func (l *transitionLog) add(event lifecycle.Event, from, to lifecycle.Status) {
	*l = append(*l, appliedTransition{event: event, from: from, to: to})
}

func (l transitionLog) flush() {
	for _, t := range l {
		metrics.UnitTransitions.WithLabelValues(string(t.event), string(t.from), string(t.to)).Inc()
	}
}

// runInTx выполняет fn в транзакции. Каждая попытка начинает журнал заново.
func runInTx(ctx context.Context, txManager repositories.TxManagerInterface, fn func(tx pgx.Tx, applied *transitionLog) error) error {
	var applied transitionLog
	err := txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		applied = applied[:0]
		return fn(tx, &applied)
	})
	if err != nil {
		return err
	}
	applied.flush()
	return nil
}

func applyTransition(ctx context.Context, tx pgx.Tx, repo repositories.UnitRepositoryInterface, applied *transitionLog, tr unitTransition) error {
	from := tr.unit.Status
	if err := lifecycle.Transition(from, tr.event, tr.to); err != nil {
		return apperrors.NewDomainError(apperrors.ErrInvalidTransition,
			"Оборудование #%d: %s", tr.unit.ID, err.Error())
	}
	if err := repo.UpdateStatus(ctx, tx, tr.unit.ID, tr.to); err != nil {
		return err
	}
	record := entities.UnitEvent{
		UnitID:     tr.unit.ID,
		Event:      tr.event,
		FromStatus: &from,
		ToStatus:   tr.to,
		RefKind:    optionalString(tr.refKind),
		Actor:      optionalString(tr.actor),
	}
	if tr.refID != 0 {
		refID := tr.refID
		record.RefID = &refID
	}
	if err := repo.AddEvent(ctx, tx, record); err != nil {
		return err
	}
	applied.add(tr.event, from, tr.to)
	tr.unit.Status = tr.to
	return nil
}

// lockUnitsByIDs блокирует единицы и проверяет, что найдены все запрошенные.
func lockUnitsByIDs(ctx context.Context, tx pgx.Tx, repo repositories.UnitRepositoryInterface, ids []uint64) ([]entities.Unit, error) {
	units, err := repo.LockUnits(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(units) == len(ids) {
		return units, nil
	}
	found := make(map[uint64]struct{}, len(units))
	for _, u := range units {
		found[u.ID] = struct{}{}
	}
	missing := make([]uint64, 0)
	labels := make([]string, 0)
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
			labels = append(labels, fmt.Sprintf("#%d", id))
		}
	}
	return nil, apperrors.NewDomainError(apperrors.ErrNotFound,
		"Оборудование не найдено: %s", strings.Join(labels, ", ")).
		WithDetails(map[string]interface{}{"missing_unit_ids": missing})
}

func lockUnit(ctx context.Context, tx pgx.Tx, repo repositories.UnitRepositoryInterface, id uint64) (*entities.Unit, error) {
	units, err := lockUnitsByIDs(ctx, tx, repo, []uint64{id})
	if err != nil {
		return nil, err
	}
	return &units[0], nil
}

// uniqueIDs возвращает ошибку, если в списке есть повторы.
func uniqueIDs(ids []uint64) error {
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return apperrors.NewDomainError(apperrors.ErrBadRequest, "Оборудование #%d указано несколько раз", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// uniqueCode подбирает свободный код: base, затем base1..base9.
func uniqueCode(base string, exists func(code string) (bool, error)) (string, error) {
	for i := 0; i <= 9; i++ {
		code := base
		if i > 0 {
			code = fmt.Sprintf("%s%d", base, i)
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.NewDomainError(apperrors.ErrDuplicateName, "Не удалось подобрать свободный код для '%s'", base)
}

// Суммы хранятся в numeric(18,2).
const (
	maxNumberLength = 32
	moneyScale      = 2
)

var maxMoney = decimal.New(999999999999999999, -moneyScale)

// parseDecimal разбирает число не длиннее maxNumberLength символов.
func parseDecimal(raw string) (decimal.Decimal, bool) {
	if len(raw) > maxNumberLength {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// exponentInRange: сравнения и округления с таким числом не раздувают коэффициент.
func exponentInRange(value decimal.Decimal) bool {
	exp := value.Exponent()
	return exp <= maxNumberLength && exp >= -maxNumberLength
}

// checkMoney проверяет, что сумма помещается в numeric(18,2).
func checkMoney(value decimal.Decimal, kind error, field string) error {
	if value.GreaterThan(maxMoney) {
		return apperrors.NewDomainError(kind, "Поле '%s' превышает максимально допустимую сумму %s",
			field, maxMoney.StringFixed(moneyScale))
	}
	return nil
}

// parseMoney разбирает неотрицательную сумму с точностью до копеек. Пустое значение даёт ноль.
func parseMoney(n types.Number, kind error, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(n.String())
	if n.IsEmpty() || raw == "" {
		return decimal.Zero, nil
	}
	value, ok := parseDecimal(raw)
	if !ok || !exponentInRange(value) {
		return decimal.Zero, apperrors.NewDomainError(kind, "Поле '%s' должно быть числом в допустимом диапазоне, получено '%s'", field, raw)
	}
	if value.IsNegative() {
		return decimal.Zero, apperrors.NewDomainError(kind, "Поле '%s' не может быть отрицательным", field)
	}
	if !value.Equal(value.Round(moneyScale)) {
		return decimal.Zero, apperrors.NewDomainError(kind, "Поле '%s' допускает не более %d знаков после запятой", field, moneyScale)
	}
	if err := checkMoney(value, kind, field); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// errorKind - короткое имя вида ошибки для метрик.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrUnitBusy):
		return "unit_busy"
	case errors.Is(err, apperrors.ErrBranchMismatch):
		return "branch_mismatch"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, apperrors.ErrWarrantyViolation):
		return "warranty_violation"
	case errors.Is(err, apperrors.ErrInvalidQuantity), errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrInvalidDate), errors.Is(err, apperrors.ErrBadRequest):
		return "invalid_input"
	}
	return "internal"
}

func countWorkflowError(workflow string, err error) {
	if err != nil {
		metrics.WorkflowErrors.WithLabelValues(workflow, errorKind(err)).Inc()
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampLayout)
}

func datePtr(t *time.Time) *types.Date {
	if t == nil {
		return nil
	}
	d := types.NewDate(*t)
	return &d
}

func notFoundAs(err error, format string, args ...interface{}) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return apperrors.NewDomainError(apperrors.ErrNotFound, format, args...)
	}
	return err
}
