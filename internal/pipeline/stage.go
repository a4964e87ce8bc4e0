package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// StageStatus tags the outcome of one pipeline stage.
type StageStatus string

const (
	StageOk      StageStatus = "ok"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

// StageResult carries a stage's value together with how it ended. A
// failed or skipped stage has a Reason and a zero Value. Skipped means
// the stage's precondition gate held it back; its collaborator was
// never invoked.
type StageResult[T any] struct {
	Value  T
	Status StageStatus
	Reason string
}

func stageOk[T any](value T) StageResult[T] {
	return StageResult[T]{Value: value, Status: StageOk}
}

func stageSkipped[T any](reason string) StageResult[T] {
	return StageResult[T]{Status: StageSkipped, Reason: reason}
}

func stageFailed[T any](reason string) StageResult[T] {
	return StageResult[T]{Status: StageFailed, Reason: reason}
}

// runStage executes fn with a deadline and panic isolation. On timeout
// the worker goroutine is abandoned, not cancelled: the stage functions
// are CPU and subprocess bound and do not take a context, so the
// goroutine finishes on its own and its result is dropped. The buffered
// channel keeps it from leaking. A panic inside fn becomes a failed
// stage instead of taking the job down.
func runStage[T any](ctx context.Context, log *logrus.Entry, name string, timeout time.Duration, fn func() (T, error)) StageResult[T] {
	stageCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	started := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{value: zero, err: fmt.Errorf("%s panicked: %v", name, r)}
			}
		}()
		value, err := fn()
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			log.WithError(out.err).Warnf("%s stage failed", name)
			return stageFailed[T](out.err.Error())
		}
		log.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Debugf("%s stage finished", name)
		return stageOk(out.value)
	case <-stageCtx.Done():
		log.Warnf("%s stage timed out after %s", name, time.Since(started).Round(time.Second))
		return stageFailed[T](name + " timed out")
	}
}
