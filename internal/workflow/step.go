// internal/workflow/step.go

// Package workflow 实现通用的 saga 编排引擎：
// 一组有序步骤在命名锁的保护下顺序执行，
// 任一步骤失败时按注册的逆序执行补偿，锁在所有路径上都会被释放。
package workflow

import "context"

// Step 是 saga 中的一个命名工作单元。
// Execute 必须把补偿所需的一切（创建的 id 等）记录到自己的状态里，
// 并在产生事务外副作用后立刻通过 Run.PushCompensation 注册补偿。
// 纯数据库写入（由外层事务回滚兜底）的步骤不需要注册补偿。
type Step interface {
	Name() string
	Execute(ctx context.Context, run *Run) error
}

// StepFunc 把一个闭包适配成 Step，saga 用它把类型化的状态
// 显式地穿在各个步骤之间，而不是塞进字符串键的元数据袋。
type StepFunc struct {
	name string
	fn   func(ctx context.Context, run *Run) error
}

func NewStep(name string, fn func(ctx context.Context, run *Run) error) *StepFunc {
	return &StepFunc{name: name, fn: fn}
}

func (s *StepFunc) Name() string { return s.name }

func (s *StepFunc) Execute(ctx context.Context, run *Run) error {
	return s.fn(ctx, run)
}
