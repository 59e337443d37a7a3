package memory_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	contract "github.com/aretw0/canopy/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Contract(t *testing.T) {
	data := map[string]string{
		"main.xml":  `<root><BehaviorTree ID="main"><AlwaysSuccess/></BehaviorTree></root>`,
		"child.xml": `<root><BehaviorTree ID="child"><AlwaysFailure/></BehaviorTree></root>`,
	}
	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	contract.DocumentLoaderContractTest(t, memory.NewLoader(data), bytesData)
}

func TestLoader_Add(t *testing.T) {
	l := memory.NewLoader(nil)
	l.Add("b", "second")
	l.Add("a", "first")

	names, err := l.ListDocuments()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	l.Add("a", "replaced")
	got, err := l.GetDocument("a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))
}
