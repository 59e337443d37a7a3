package runtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/factory"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dummyAction counts its ticks and succeeds on the third one.
type dummyAction struct {
	cfg     *node.Config
	counter int
	seen    []string
}

func (d *dummyAction) step() (domain.Status, error) {
	foo, err := node.GetInput[string](d.cfg, "foo")
	if err != nil {
		return domain.StatusIdle, err
	}
	d.seen = append(d.seen, foo)

	bar, err := node.GetInput[uint32](d.cfg, "bar")
	if err != nil || bar != 16 {
		return domain.StatusIdle, errors.Join(err, errors.New("bar default not applied"))
	}

	d.counter++
	if err := d.cfg.SetOutput("bb_test", "this value comes from the blackboard!"); err != nil {
		return domain.StatusIdle, err
	}
	if d.counter > 2 {
		return domain.StatusSuccess, nil
	}
	d.cfg.Blackboard().Write("foo", "new value!")
	return domain.StatusRunning, nil
}

func (d *dummyAction) OnStart(context.Context) (domain.Status, error)   { return d.step() }
func (d *dummyAction) OnRunning(context.Context) (domain.Status, error) { return d.step() }
func (d *dummyAction) OnHalted()                                        {}

const dummyTree = `
<root main_tree_to_execute="main">
  <BehaviorTree ID="main">
    <DummyNode name="dummy" foo="{foo}" bb_test="bb_test"/>
  </BehaviorTree>
</root>`

func TestTickWhileRunning_EndToEnd(t *testing.T) {
	f := factory.New()
	var action *dummyAction
	require.NoError(t, f.RegisterStatefulAction("DummyNode",
		func(cfg *node.Config) node.StatefulAction {
			action = &dummyAction{cfg: cfg}
			return action
		},
		node.Ports(
			node.InputPort("foo"),
			node.InputPort("bar").WithDefault(16),
			node.OutputPort("bb_test"),
		),
	))
	require.NoError(t, f.RegisterTreesFromText(dummyTree))

	bb := blackboard.New()
	bb.Write("foo", "initial")
	root, err := f.Instantiate(bb, "main")
	require.NoError(t, err)

	var afterFirst bool
	tree := runtime.New("main", root, bb,
		runtime.WithTickInterval(time.Millisecond),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnTickEnd: func(_ context.Context, e *domain.TickEvent) {
				if e.Round == 1 {
					afterFirst = bb.Has("bb_test")
				}
			},
		}),
	)

	st, err := tree.TickWhileRunning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, st)
	assert.Equal(t, 3, tree.Rounds())
	assert.Equal(t, 3, action.counter)
	assert.True(t, afterFirst, "bb_test written during the first tick")
	assert.Equal(t, []string{"initial", "new value!", "new value!"}, action.seen)
}

func TestTickOnce_PropagatesErrorsAndResets(t *testing.T) {
	f := factory.New()
	boom := errors.New("boom")
	require.NoError(t, f.RegisterAction("Explode", func(context.Context, *node.Config) (domain.Status, error) {
		return domain.StatusIdle, boom
	}, nil))
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t">
	  <Parallel><Sleep msec="10000"/><Explode/></Parallel>
	</BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "t")
	require.NoError(t, err)
	tree := runtime.New("t", root, root.Config().Blackboard())

	_, err = tree.TickWhileRunning(context.Background())
	require.ErrorIs(t, err, boom)
	var ne *domain.NodeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Parallel/Explode", ne.Path)
	assert.Equal(t, 1, tree.Rounds())

	node.Walk(root, func(n node.Node, _ int) bool {
		assert.Equal(t, domain.StatusIdle, n.Status(), n.Name())
		return true
	})
}

func TestHalt_FromAnotherGoroutine(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t">
	  <Sequence><Sleep msec="60000"/><AlwaysSuccess/></Sequence>
	</BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "t")
	require.NoError(t, err)

	var halts int
	var mu sync.Mutex
	tree := runtime.New("t", root, root.Config().Blackboard(),
		runtime.WithTickInterval(time.Millisecond),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnHalt: func(context.Context, *domain.TickEvent) {
				mu.Lock()
				halts++
				mu.Unlock()
			},
		}),
	)

	done := make(chan error, 1)
	go func() {
		_, err := tree.TickWhileRunning(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return tree.Status() == domain.StatusRunning }, time.Second, time.Millisecond)
	tree.Halt()

	select {
	case err := <-done:
		assert.True(t, runtime.IsHalted(err))
	case <-time.After(2 * time.Second):
		t.Fatal("TickWhileRunning did not return after Halt")
	}
	assert.Equal(t, domain.StatusIdle, tree.Status())
	mu.Lock()
	assert.Equal(t, 1, halts)
	mu.Unlock()
}

func TestTickWhileRunning_ContextCancel(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t"><Sleep msec="60000"/></BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "")
	require.NoError(t, err)
	tree := runtime.New("t", root, root.Config().Blackboard(), runtime.WithTickInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := tree.TickWhileRunning(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.StatusIdle, st)
	assert.Equal(t, domain.StatusIdle, root.Status())
}

func TestStatusChangeHooks_CarryTreeIdentity(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t">
	  <Sequence name="seq"><AlwaysSuccess name="ok"/></Sequence>
	</BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "t")
	require.NoError(t, err)

	var events []*domain.NodeEvent
	tree := runtime.New("t", root, root.Config().Blackboard(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnStatusChange: func(_ context.Context, e *domain.NodeEvent) { events = append(events, e) },
	}))

	st, err := tree.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, st)

	require.Len(t, events, 2)
	assert.Equal(t, "seq/ok", events[0].Path)
	assert.Equal(t, "seq", events[1].Path)
	for _, e := range events {
		assert.Equal(t, "t", e.TreeID)
		assert.Equal(t, tree.UID().String(), e.TreeUID)
	}

	snap := tree.Snapshot()
	assert.Equal(t, domain.StatusSuccess, snap.Status)
	assert.Equal(t, 1, snap.Rounds)
	assert.Equal(t, "seq", snap.Root.Name)
}

func TestTickWhileRunning_NonPositiveIntervalDoesNotSpin(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t"><Sleep msec="60000"/></BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "")
	require.NoError(t, err)
	tree := runtime.New("t", root, root.Config().Blackboard(), runtime.WithTickInterval(0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tree.TickWhileRunning(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, tree.Rounds(), int(50*time.Millisecond/runtime.DefaultTickInterval)+1)
}

func TestTickOnce_RestartsCompletedRoot(t *testing.T) {
	f := factory.New()
	var calls int
	require.NoError(t, f.RegisterAction("Once", func(context.Context, *node.Config) (domain.Status, error) {
		calls++
		if calls == 1 {
			return domain.StatusSuccess, nil
		}
		return domain.StatusSkipped, nil
	}, node.Ports()))
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t"><Once/></BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "")
	require.NoError(t, err)
	tree := runtime.New("t", root, root.Config().Blackboard())

	st, err := tree.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, st)
	st, err = tree.TickOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, st)
}

func TestTickEndEvent_CarriesErrorText(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterAction("Broken", func(context.Context, *node.Config) (domain.Status, error) {
		return domain.StatusIdle, errors.New("sensor offline")
	}, node.Ports()))
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="t"><Broken/></BehaviorTree></root>`))
	root, err := f.Instantiate(nil, "")
	require.NoError(t, err)

	var got *domain.TickEvent
	tree := runtime.New("t", root, root.Config().Blackboard(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnTickEnd: func(_ context.Context, e *domain.TickEvent) { got = e },
	}))
	_, err = tree.TickOnce(context.Background())
	require.Error(t, err)

	require.NotNil(t, got)
	assert.Contains(t, got.Error, "sensor offline")
	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":`)
	assert.Contains(t, string(data), "sensor offline")
}
