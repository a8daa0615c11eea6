package service

import (
	"context"
	"fmt"
)

// RunAtomic runs fn inside one unit of work. The unit commits only if fn
// returns nil; any error or panic rolls every write back and drops the
// events fn queued.
func RunAtomic(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	return nil
}
