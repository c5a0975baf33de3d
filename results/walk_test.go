package results

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_PreOrderDepthFirst(t *testing.T) {
	files := []*File{
		NewFile("a.test",
			NewSuite("outer",
				Passed("first"),
				NewSuite("inner", Failed("deep", "boom", "")),
				Skipped("last"),
			),
			Passed("top"),
		),
		NewFile("b.test", Passed("only")),
	}

	var paths []string
	Walk(files, func(task Task, path string) {
		paths = append(paths, path)
	})

	assert.Equal(t, []string{
		"a.test > outer",
		"a.test > outer > first",
		"a.test > outer > inner",
		"a.test > outer > inner > deep",
		"a.test > outer > last",
		"a.test > top",
		"b.test > only",
	}, paths)
}

func TestWalk_ToleratesNils(t *testing.T) {
	var nilSuite *Suite
	var nilTest *Test
	files := []*File{
		nil,
		{Name: "f", Tasks: []Task{nil, nilSuite, nilTest, &Suite{Name: "empty"}, &Test{Name: "t"}}},
		{Name: "g"},
	}

	var paths []string
	WalkTests(files, func(test *Test, path string) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"f > t"}, paths)
}

func TestDecodeFiles(t *testing.T) {
	input := `[
	  {"name": "math.test.ts", "tasks": [
	    {"type": "suite", "name": "add", "tasks": [
	      {"type": "test", "name": "adds", "result": {"state": "pass"}},
	      {"type": "test", "name": "overflows", "result": {"state": "fail",
	        "errors": [{"message": "expected 3", "stack": "at add.ts:1"}, {"message": "ignored"}]}}
	    ]},
	    {"type": "test", "name": "later", "mode": "todo"},
	    {"name": "implicit suite", "tasks": []},
	    {"name": "implicit test", "extra": true}
	  ]}
	]`

	files, err := DecodeFiles(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, files[0].Tasks, 4)

	suite := files[0].Tasks[0].(*Suite)
	require.Len(t, suite.Tasks, 2)
	failed := suite.Tasks[1].(*Test)
	testErr, ok := failed.FirstError()
	require.True(t, ok)
	assert.Equal(t, TestError{Message: "expected 3", Stack: "at add.ts:1"}, testErr)

	todo := files[0].Tasks[1].(*Test)
	assert.Equal(t, ModeTodo, todo.Mode)
	assert.Nil(t, todo.Result)

	_, isSuite := files[0].Tasks[2].(*Suite)
	assert.True(t, isSuite)
	_, isTest := files[0].Tasks[3].(*Test)
	assert.True(t, isTest)
}

func TestDecodeFiles_Errors(t *testing.T) {
	_, err := DecodeFiles(strings.NewReader("not json"))
	assert.Error(t, err)

	_, err = DecodeFiles(strings.NewReader(`[{"name":"f","tasks":[{"type":"widget","name":"w"}]}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "widget"`)
}
