// internal/workflow/engine.go
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vernont/internal/locking"
	"vernont/internal/pkg/apperr"
)

// Engine 在命名锁的保护下执行 saga 的步骤序列，
// 保证同一锁 key 同一时刻至多一次执行，失败时自动回滚。
type Engine struct {
	locker   locking.Locker
	lockWait time.Duration
	lockTTL  time.Duration
	tracer   trace.Tracer
}

// Option 配置 Engine。
type Option func(*Engine)

// WithLockWait 设置抢锁的最长等待时间。
func WithLockWait(wait time.Duration) Option {
	return func(e *Engine) { e.lockWait = wait }
}

// WithLockTTL 设置锁的安全过期时间，持有进程崩溃后锁不会被永久占用。
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.lockTTL = ttl }
}

func NewEngine(locker locking.Locker, opts ...Option) *Engine {
	e := &Engine{
		locker:   locker,
		lockWait: 5 * time.Second,
		lockTTL:  30 * time.Second,
		tracer:   otel.Tracer("workflow-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 执行一个 saga：
//  1. 以有限等待 + TTL 抢锁，抢不到返回 *apperr.LockTimeoutError，任何步骤都不执行；
//  2. 严格按顺序执行步骤，同一个 Run 贯穿所有步骤；
//  3. 任一步骤失败：按注册逆序执行补偿，返回包装了原始错误的失败；
//  4. 无论正常返回、失败还是 panic，锁都会被释放，这是引擎最重要的正确性属性。
func (e *Engine) Run(ctx context.Context, saga, lockKey string, steps []Step) error {
	run := &Run{
		Saga:          saga,
		CorrelationID: uuid.NewString(),
	}

	ctx, span := e.tracer.Start(ctx, "saga."+saga, trace.WithAttributes(
		attribute.String("saga.lock_key", lockKey),
		attribute.String("saga.correlation_id", run.CorrelationID),
	))
	defer span.End()

	lockStart := time.Now()
	handle, err := e.locker.Acquire(ctx, lockKey, e.lockWait, e.lockTTL)
	lockWaitSeconds.WithLabelValues(saga).Observe(time.Since(lockStart).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock acquisition failed")
		sagaRuns.WithLabelValues(saga, "lock_timeout").Inc()
		return err
	}
	// 锁的释放必须覆盖所有路径，包括步骤 panic
	defer func() {
		if releaseErr := handle.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			log.Warn().Err(releaseErr).Str("saga", saga).Str("lock_key", lockKey).
				Msg("failed to release saga lock, TTL will reclaim it")
		}
	}()

	// 步骤 panic 时同样要回滚已提交的外部副作用，回滚完再继续抛出
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("saga", saga).
				Str("correlation_id", run.CorrelationID).
				Interface("panic", r).
				Msg("saga step panicked, unwinding compensations")
			run.triggerCompensations(context.WithoutCancel(ctx))
			sagaRuns.WithLabelValues(saga, "panic").Inc()
			panic(r)
		}
	}()

	log.Info().
		Str("saga", saga).
		Str("lock_key", lockKey).
		Str("correlation_id", run.CorrelationID).
		Msg("saga started")

	for _, step := range steps {
		if err := e.runStep(ctx, run, step); err != nil {
			stepFailures.WithLabelValues(saga, step.Name()).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "step "+step.Name()+" failed")

			// 回滚也脱离调用方的取消信号：原始错误已经发生，
			// 补偿必须有机会跑完
			run.triggerCompensations(context.WithoutCancel(ctx))

			sagaRuns.WithLabelValues(saga, "failed").Inc()
			return errors.Wrapf(err, "saga %s: step %s failed", saga, step.Name())
		}
	}

	sagaRuns.WithLabelValues(saga, "success").Inc()
	log.Info().
		Str("saga", saga).
		Str("correlation_id", run.CorrelationID).
		Msg("saga completed")
	return nil
}

func (e *Engine) runStep(ctx context.Context, run *Run, step Step) error {
	ctx, span := e.tracer.Start(ctx, "saga."+run.Saga+"."+step.Name())
	defer span.End()

	if err := step.Execute(ctx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// IsLockTimeout 判断错误是否为抢锁超时，供调用方决定是否重试。
func IsLockTimeout(err error) bool {
	var lockErr *apperr.LockTimeoutError
	return errors.As(err, &lockErr)
}
