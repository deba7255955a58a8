// ABOUTME: Device loss recovery
// ABOUTME: Re-acquires the default device with capped exponential backoff
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/resonate-render/pkg/audio/device"
	"github.com/cenkalti/backoff/v4"
)

// recoverDevice replaces the lost session. It returns false when the loop must
// exit, either because ctx ended or because the attempts ran out and the
// engine went silent.
func (l *loop) recoverDevice(ctx context.Context, cause error) bool {
	e := l.e
	e.setState(RecoveringDevice)
	if l.session != nil {
		l.log.Warnf("Audio device lost (session %s): %v", l.session.ID, cause)
	} else {
		l.log.Warnf("Audio device lost: %v", cause)
	}

	l.release()
	e.ring.Reset()
	l.src.reset()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.RecoveryInitialInterval
	b.MaxInterval = e.cfg.RecoveryMaxInterval
	b.MaxElapsedTime = 0

	retries := uint64(e.cfg.MaxRecoveryAttempts - 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)

	attempts := 0
	op := func() error {
		attempts++
		s, err := device.Acquire(ctx, e.platform, e.cfg.device(), l.log)
		if err != nil {
			return err
		}
		if err := l.attach(s); err != nil {
			s.Release()
			return err
		}
		if err := l.prime(true); err != nil {
			l.release()
			return err
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		e.metrics.recoveryFailed()
		l.log.Warnf("Device recovery attempt %d/%d failed, retrying in %v: %v",
			attempts, e.cfg.MaxRecoveryAttempts, next, err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctx.Err() != nil {
			return false
		}
		e.metrics.recoveryFailed()
		e.silence(fmt.Errorf("failed to recover audio device after %d attempts: %w", attempts, err))
		return false
	}

	e.metrics.recovered()
	e.setState(Running)
	l.log.Infof("Audio device recovered on session %s (%s)", l.session.ID, l.session.Format())
	return true
}
