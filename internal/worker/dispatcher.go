package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Dispatcher запускает фоновые запросы к API: одна горутина на задание, без очереди
// и без порядка между заданиями. Начатое задание не отменяется, Stop ждёт его завершения.
type Dispatcher struct {
	logger   *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopped  bool
	inFlight atomic.Int64
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:  logger,
		timeout: timeout,
	}
}

// Go запускает fn в отдельной горутине. После Stop задания отбрасываются.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.logger.Warn("dispatcher stopped, job dropped", zap.String("job", name))
		return false
	}
	d.wg.Add(1)
	d.inFlight.Add(1)
	d.mu.Unlock()

	go d.run(name, fn)
	return true
}

func (d *Dispatcher) run(name string, fn func(ctx context.Context) error) {
	defer d.wg.Done()
	defer d.inFlight.Add(-1)

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		d.logger.Warn("job failed",
			zap.String("job", name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// InFlight - число заданий, которые ещё выполняются
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Wait блокируется, пока не завершатся все запущенные задания.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.logger.Debug("stopping dispatcher", zap.Int("in_flight", d.InFlight()))
	d.wg.Wait()
}
