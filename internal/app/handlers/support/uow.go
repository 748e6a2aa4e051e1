package support

import (
	"context"
	"errors"
	"time"

	"babiloc/internal/app/uow"
	"babiloc/internal/domain/shared/failure"
)

// BeginReadOnlyUnit reuses the ambient unit or starts a read-only one released by cleanup.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// Managed is a write unit a handler started itself because no Transaction middleware ran.
type Managed struct {
	unit      uow.UnitOfWork
	managed   bool
	committed bool
}

// BeginUnit reuses the ambient unit or starts a managed write unit.
// Callers defer Close and call Commit on success.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, *Managed, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, &Managed{unit: unit}, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	return unit, uow.Bind(ctx, unit), &Managed{unit: unit, managed: true}, nil
}

func (m *Managed) Commit(ctx context.Context) error {
	if !m.managed || m.committed {
		return nil
	}
	if err := m.unit.Commit(ctx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

func (m *Managed) Close(ctx context.Context) {
	if m.managed && !m.committed {
		_ = m.unit.Rollback(ctx)
	}
}

// NotFound converts a repository sentinel into a not_found failure.
func NotFound(err error, sentinel error, format string, args ...any) error {
	if errors.Is(err, sentinel) {
		return failure.NotFound(format, args...)
	}
	return err
}

// Clock returns now() or the wall clock in UTC.
func Clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
