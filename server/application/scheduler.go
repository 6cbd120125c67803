package application

import "context"

// Task はSchedulerが周期実行する処理です。
type Task func(ctx context.Context)

type scheduledTask struct {
	name  string
	every uint64
	run   Task
}

// Scheduler は名前付きの周期タスクをtick単位で実行します。
// 全タスクはひとつのactiveフラグで止まります。
type Scheduler struct {
	tasks  []scheduledTask
	active bool
	ticks  uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register はeveryTicksごとに実行するタスクを登録します。登録順に実行されます。
func (s *Scheduler) Register(name string, everyTicks int, task Task) {
	if everyTicks < 1 {
		everyTicks = 1
	}
	s.tasks = append(s.tasks, scheduledTask{name: name, every: uint64(everyTicks), run: task})
}

// Start はtickカウンタを0に戻して全タスクを有効にします。
func (s *Scheduler) Start() {
	s.ticks = 0
	s.active = true
}

// StopAll は全タスクを停止します。同じtick内の残りのタスクも実行されません。
func (s *Scheduler) StopAll() {
	s.active = false
}

func (s *Scheduler) Active() bool {
	return s.active
}

// Step は1tick進め、周期に達したタスクを実行します。
func (s *Scheduler) Step(ctx context.Context) {
	if !s.active {
		return
	}
	s.ticks++
	for _, t := range s.tasks {
		if !s.active {
			return
		}
		if s.ticks%t.every == 0 {
			t.run(ctx)
		}
	}
}

// Names は登録済みタスク名を登録順に返します。
func (s *Scheduler) Names() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.name
	}
	return names
}
