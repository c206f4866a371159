package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("launch", LaunchConfig(2))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if p.Name() != "launch" {
		t.Errorf("池名称不匹配: 期望 launch, 实际 %s", p.Name())
	}
	if p.Cap() != 2 {
		t.Errorf("池容量不匹配: 期望 2, 实际 %d", p.Cap())
	}
}

func TestNewPoolInvalidConfig(t *testing.T) {
	for _, config := range []*Config{nil, {Capacity: 0}} {
		if _, err := NewPool("bad", config); !errors.Is(err, ErrInvalidPoolConfig) {
			t.Errorf("NewPool(%v) error = %v, want ErrInvalidPoolConfig", config, err)
		}
	}
}

func TestLaunchConfigMinimum(t *testing.T) {
	if got := LaunchConfig(0).Capacity; got != 1 {
		t.Errorf("LaunchConfig(0).Capacity = %d, want 1", got)
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 16})
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}); err != nil {
			t.Errorf("提交任务失败: %v", err)
			wg.Done()
		}
	}
	wg.Wait()

	if counter.Load() != 50 {
		t.Errorf("任务执行数不匹配: 期望 50, 实际 %d", counter.Load())
	}
	if s := p.Stats(); s.Submitted != 50 {
		t.Errorf("Submitted = %d, want 50", s.Submitted)
	}
}

// Tasks in a launch-sized pool run concurrently rather than queueing.
func TestLaunchPoolRunsConcurrently(t *testing.T) {
	const n = 3
	p, err := NewPool("launch", LaunchConfig(n))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	for i := 0; i < n; i++ {
		if err := p.Submit(func() {
			started.Done()
			<-release
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		started.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not start concurrently")
	}
	close(release)
}

func TestPoolPanicHandler(t *testing.T) {
	recovered := make(chan interface{}, 1)
	p, err := NewPool("panic", &Config{
		Capacity:     1,
		PanicHandler: func(r interface{}) { recovered <- r },
	})
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case r := <-recovered:
		if r != "boom" {
			t.Errorf("recovered = %v, want boom", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler not invoked")
	}

	deadline := time.Now().Add(time.Second)
	for p.Stats().Panics != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Stats().Panics; got != 1 {
		t.Errorf("Panics = %d, want 1", got)
	}
}

func TestPoolRelease(t *testing.T) {
	p, err := NewPool("release", LaunchConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	p.Release()
	p.Release()

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() after Release error = %v, want ErrPoolClosed", err)
	}
}
