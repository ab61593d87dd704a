// internal/workflow/run.go
package workflow

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"vernont/internal/pkg/apperr"
)

// CompensationFunc 定义了补偿操作的函数签名。
type CompensationFunc func(ctx context.Context) error

// compensation 除闭包外还带上步骤名和一段可读的 undo 描述，
// 让回滚日志不依赖闭包内容就能还原发生了什么。
type compensation struct {
	step        string
	description string
	fn          CompensationFunc
}

// Run 是一次 saga 执行的瞬态上下文，从不持久化，执行结束即销毁。
// 领域数据通过各 saga 自己的类型化 state 结构传递，
// 这里的元数据袋只留给真正横切的东西（关联 id 之类）。
type Run struct {
	Saga          string
	CorrelationID string

	mu            sync.Mutex
	meta          map[string]interface{}
	compensations []compensation
}

// PutMetadata 写入一个横切元数据。
func (r *Run) PutMetadata(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.meta == nil {
		r.meta = make(map[string]interface{})
	}
	r.meta[key] = value
}

// Metadata 读取元数据，键不存在时返回 NotFoundError。
func (r *Run) Metadata(key string) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.meta[key]
	if !ok {
		return nil, apperr.NotFound("workflow metadata", key)
	}
	return value, nil
}

// PushCompensation 将一个补偿函数推入栈中。
// 使用 LIFO（后进先出），后注册的补偿先执行。
func (r *Run) PushCompensation(step, description string, fn CompensationFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append([]compensation{{step: step, description: description, fn: fn}}, r.compensations...)
}

// triggerCompensations 执行所有已注册的补偿函数。
// 单个补偿失败只记日志不中断，保证其余补偿仍然有机会执行（尽力而为的回滚）。
// 返回失败的补偿数量。
func (r *Run) triggerCompensations(ctx context.Context) int {
	r.mu.Lock()
	comps := r.compensations
	r.compensations = nil
	r.mu.Unlock()

	log.Info().
		Str("saga", r.Saga).
		Str("correlation_id", r.CorrelationID).
		Int("count", len(comps)).
		Msg("executing compensation functions")

	failed := 0
	for _, comp := range comps {
		if err := comp.fn(ctx); err != nil {
			failed++
			// 补偿失败绝不向调用方抛出，只能记录告警，避免掩盖原始错误
			log.Warn().
				Err(err).
				Str("saga", r.Saga).
				Str("correlation_id", r.CorrelationID).
				Str("step", comp.step).
				Str("undo", comp.description).
				Msg("compensation failed")
			compensationFailures.WithLabelValues(r.Saga, comp.step).Inc()
		}
	}
	return failed
}
