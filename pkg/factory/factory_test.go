package factory_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/factory"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainAndChild = `
<root main_tree_to_execute="main">
  <BehaviorTree ID="main">
    <Sequence name="root">
      <SetBlackboard value="42" output_key="answer"/>
      <SubTree ID="child"/>
    </Sequence>
  </BehaviorTree>
  <BehaviorTree ID="child">
    <ScriptCondition code="answer == '42'"/>
  </BehaviorTree>
</root>`

func TestInstantiate(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterTreesFromText(mainAndChild))
	assert.Equal(t, "main", f.MainTree())
	assert.Equal(t, []string{"main", "child"}, f.TreeIDs())

	bb := blackboard.New()
	root, err := f.Instantiate(bb, "")
	require.NoError(t, err)
	assert.Equal(t, "root", root.Name())
	assert.Equal(t, "Sequence", root.RegistrationID())

	var names []string
	node.Walk(root, func(n node.Node, _ int) bool {
		names = append(names, n.Name())
		assert.Same(t, bb, n.Config().Blackboard())
		return true
	})
	assert.Equal(t, []string{"root", "SetBlackboard", "child", "ScriptCondition"}, names)

	st, err := node.Execute(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, st)
}

func TestInstantiate_UnknownNodeTypeBuildsNothing(t *testing.T) {
	f := factory.New()
	var built atomic.Int32
	require.NoError(t, f.Register(
		node.Manifest{Type: domain.NodeTypeAction, ID: "Counted"},
		func(cfg *node.Config) node.Node {
			built.Add(1)
			return node.NewLeaf(cfg, func(context.Context, *node.Config) (domain.Status, error) {
				return domain.StatusSuccess, nil
			})
		},
	))

	text := `<root><BehaviorTree ID="t"><Sequence><Counted/><Missing/></Sequence></BehaviorTree></root>`
	_, err := f.Parse(text)
	require.ErrorIs(t, err, domain.ErrUnknownNodeType)
	var pe *domain.ParseError
	assert.ErrorAs(t, err, &pe)

	// Bypass the reference check so that Instantiate sees the bad tree.
	doc, err := compiler.NewParser().Parse([]byte(text))
	require.NoError(t, err)
	require.NoError(t, f.RegisterDocument(doc))

	_, err = f.Instantiate(nil, "t")
	require.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.Zero(t, built.Load(), "no node constructed")

	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="ok"><Counted/></BehaviorTree></root>`))
	_, err = f.Instantiate(nil, "ok")
	require.NoError(t, err)
	assert.EqualValues(t, 1, built.Load())
}

func TestInstantiate_CyclicSubTree(t *testing.T) {
	f := factory.New()
	doc, err := f.Parse(`<root>
  <BehaviorTree ID="A"><SubTree ID="B"/></BehaviorTree>
  <BehaviorTree ID="B"><SubTree ID="A"/></BehaviorTree>
</root>`)
	require.ErrorIs(t, err, domain.ErrCyclicSubTree)
	assert.Nil(t, doc)
}

func TestInstantiate_ErrorsFromRegisteredDocument(t *testing.T) {
	f := factory.New()
	parsed, err := f.Parse(`<root><BehaviorTree ID="A"><AlwaysSuccess/></BehaviorTree></root>`)
	require.NoError(t, err)
	require.NoError(t, f.RegisterDocument(parsed))

	err = f.RegisterDocument(parsed)
	assert.ErrorIs(t, err, domain.ErrDuplicateTree)

	_, err = f.Instantiate(nil, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownSubTree)
}

type dummy struct {
	cfg     *node.Config
	counter int
}

func (d *dummy) step() (domain.Status, error) {
	d.counter++
	if err := d.cfg.SetOutput("bb_test", "this value comes from the blackboard!"); err != nil {
		return domain.StatusIdle, err
	}
	if d.counter > 2 {
		return domain.StatusSuccess, nil
	}
	return domain.StatusRunning, nil
}

func (d *dummy) OnStart(context.Context) (domain.Status, error)   { return d.step() }
func (d *dummy) OnRunning(context.Context) (domain.Status, error) { return d.step() }
func (d *dummy) OnHalted()                                        {}

func TestRegisterStatefulAction(t *testing.T) {
	f := factory.New()
	require.NoError(t, f.RegisterStatefulAction("DummyNode",
		func(cfg *node.Config) node.StatefulAction { return &dummy{cfg: cfg} },
		node.Ports(node.InputPort("foo"), node.OutputPort("bb_test")),
	))
	require.NoError(t, f.RegisterTreesFromText(`<root><BehaviorTree ID="main">
	  <DummyNode foo="{foo}" bb_test="bb_test"/>
	</BehaviorTree></root>`))

	assert.Equal(t, "main", f.MainTree(), "single tree is the main tree")
	root, err := f.Instantiate(blackboard.New(), "main")
	require.NoError(t, err)
	_, ok := root.(*node.StatefulActionNode)
	assert.True(t, ok)
}

func TestNew_WithRegistryCollision(t *testing.T) {
	f := factory.New()
	assert.Panics(t, func() { factory.New(factory.WithRegistry(f.Registry())) })
	assert.NotPanics(t, func() { factory.New(factory.WithRegistry(f.Registry()), factory.WithoutBuiltins()) })

	_, ok := f.Registry().Lookup(nodes.SubTreeID)
	assert.True(t, ok)
}

func TestRegisterSources_CrossReferences(t *testing.T) {
	main := factory.Source{Name: "main.xml", Text: []byte(`<root main_tree_to_execute="main">
	  <BehaviorTree ID="main"><SubTree ID="child"/></BehaviorTree>
	</root>`)}
	child := factory.Source{Name: "child.xml", Text: []byte(`<root>
	  <BehaviorTree ID="child"><AlwaysSuccess/></BehaviorTree>
	</root>`)}

	f := factory.New()
	require.NoError(t, f.RegisterSources(main, child))
	assert.Equal(t, "main", f.MainTree())
	assert.Equal(t, []string{"main", "child"}, f.TreeIDs())

	root, err := f.Instantiate(nil, "")
	require.NoError(t, err)
	st, err := node.Execute(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, st)
}

func TestRegisterSources_AllOrNothing(t *testing.T) {
	good := factory.Source{Name: "good.xml", Text: []byte(`<root><BehaviorTree ID="good"><AlwaysSuccess/></BehaviorTree></root>`)}
	bad := factory.Source{Name: "bad.xml", Text: []byte(`<root><BehaviorTree ID="bad"><SubTree ID="missing"/></BehaviorTree></root>`)}

	f := factory.New()
	err := f.RegisterSources(good, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownSubTree)
	assert.Contains(t, err.Error(), "bad.xml")
	assert.Empty(t, f.TreeIDs())

	dup := factory.Source{Name: "dup.xml", Text: []byte(`<root><BehaviorTree ID="good"><AlwaysFailure/></BehaviorTree></root>`)}
	err = f.RegisterSources(good, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateTree)
	assert.Empty(t, f.TreeIDs())
}
