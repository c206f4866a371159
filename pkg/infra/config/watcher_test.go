package config

import (
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/viper"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(id string, err error) ChangeHandler {
	return func(*viper.Viper) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, id)
		return err
	}
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestWatcherSubscribeReplaces(t *testing.T) {
	w := NewWatcher(viper.New())
	w.watching = true
	r := &recorder{}

	w.Subscribe("a", r.handler("a", nil))
	w.Subscribe("b", r.handler("b", nil))
	w.Subscribe("a", r.handler("a2", nil))
	w.notify()

	got := r.get()
	want := []string{"a2", "b"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestWatcherNotifyOrderAndErrors(t *testing.T) {
	w := NewWatcher(viper.New())
	w.watching = true
	r := &recorder{}

	w.Subscribe("c", r.handler("c", nil))
	w.Subscribe("a", r.handler("a", fmt.Errorf("rejected")))
	w.Subscribe("b", r.handler("b", nil))

	w.notify()

	got := r.get()
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestWatcherStopSuppressesNotify(t *testing.T) {
	path := writeFile(t, "debug = true\nfixversion = 1.0\n")
	var s settings
	v, err := newTestLoader(path).Load(&s)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	w := NewWatcher(v)
	r := &recorder{}
	w.Subscribe("a", r.handler("a", nil))

	w.Start()
	w.Start()
	w.notify()
	if got := r.get(); len(got) != 1 {
		t.Fatalf("calls after Start = %v, want one", got)
	}

	w.Stop()
	w.notify()
	if got := r.get(); len(got) != 1 {
		t.Errorf("handlers invoked after Stop: %v", got)
	}
}
