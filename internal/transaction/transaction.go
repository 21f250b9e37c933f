// SPDX-License-Identifier: MPL-2.0

package transaction

import (
	"errors"
	"fmt"
)

type (
	// Operation is a reversible unit of work. Rollback must restore the state
	// observed before Execute. An Execute that fails must leave no partial
	// effect behind.
	Operation interface {
		Execute() error
		Rollback() error
	}

	// Interceptor reacts to the outcome of a transaction or operation.
	// Interceptors recompute derived state and cannot fail; an inconsistency
	// they detect is a programming error.
	Interceptor interface {
		PostExecute()
		PostRollback()
	}

	// RollbackError reports that undoing a failed transaction failed too.
	// The state is then undefined.
	RollbackError struct {
		Err         error
		RollbackErr error
	}

	// Func adapts a pair of functions to Operation. A nil Undo does nothing.
	Func struct {
		Do   func() error
		Undo func() error
	}

	intercepted struct {
		op           Operation
		interceptors []Interceptor
	}
)

// Run executes ops in order and runs interceptors after the list succeeded
// or was rolled back.
func Run(ops []Operation, interceptors ...Interceptor) error {
	executed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if err := op.Execute(); err != nil {
			rbErr := rollback(executed)
			for _, i := range interceptors {
				i.PostRollback()
			}
			if rbErr != nil {
				return &RollbackError{Err: err, RollbackErr: rbErr}
			}
			return err
		}
		executed = append(executed, op)
	}
	for _, i := range interceptors {
		i.PostExecute()
	}
	return nil
}

func rollback(executed []Operation) error {
	for i := len(executed) - 1; i >= 0; i-- {
		if err := executed[i].Rollback(); err != nil {
			return err
		}
	}
	return nil
}

// Intercept wraps op so that interceptors run right after it executes or
// rolls back. If op fails to execute, the interceptors see PostRollback.
func Intercept(op Operation, interceptors ...Interceptor) Operation {
	return &intercepted{op: op, interceptors: interceptors}
}

func (o *intercepted) Execute() error {
	if err := o.op.Execute(); err != nil {
		for _, i := range o.interceptors {
			i.PostRollback()
		}
		return err
	}
	for _, i := range o.interceptors {
		i.PostExecute()
	}
	return nil
}

func (o *intercepted) Rollback() error {
	err := o.op.Rollback()
	for _, i := range o.interceptors {
		i.PostRollback()
	}
	return err
}

// Execute calls Do.
func (f Func) Execute() error { return f.Do() }

// Rollback calls Undo if set.
func (f Func) Rollback() error {
	if f.Undo == nil {
		return nil
	}
	return f.Undo()
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Err, e.RollbackErr)
}

// Unwrap returns both the original and the rollback error.
func (e *RollbackError) Unwrap() []error { return []error{e.Err, e.RollbackErr} }

// IsRollbackError reports whether err carries a failed rollback.
func IsRollbackError(err error) bool {
	var rb *RollbackError
	return errors.As(err, &rb)
}
