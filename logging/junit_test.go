package logging

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/spec-harness/types"
)

func TestJUnitSinkWritesDocument(t *testing.T) {
	runDir := t.TempDir()
	sink := NewJUnitSink(runDir)

	results := []*types.TestResult{
		passedResult("calculator adds numbers", "calc.spec.js"),
		pendingResult("calculator divides by zero", "calc.spec.js"),
		failedResult("parser rejects garbage", "parser.spec.js", "Expected false to be true."),
	}
	for _, r := range results {
		require.NoError(t, sink.Consume(r, "run-1"))
	}
	require.NoError(t, sink.Complete("run-1"))

	data, err := os.ReadFile(filepath.Join(runDir, JUnitFileName))
	require.NoError(t, err)

	var doc junitTestSuites
	require.NoError(t, xml.Unmarshal(data, &doc))

	assert.Equal(t, 3, doc.Tests)
	assert.Equal(t, 1, doc.Failures)
	assert.Equal(t, 1, doc.Skipped)

	require.Len(t, doc.TestSuite, 2)
	assert.Equal(t, "calc.spec.js", doc.TestSuite[0].Name)
	assert.Equal(t, 2, doc.TestSuite[0].Tests)
	assert.Equal(t, 0, doc.TestSuite[0].Failures)
	assert.Equal(t, 1, doc.TestSuite[0].Skipped)

	assert.Equal(t, "parser.spec.js", doc.TestSuite[1].Name)
	require.Len(t, doc.TestSuite[1].TestCase, 1)
	tc := doc.TestSuite[1].TestCase[0]
	assert.Equal(t, "parser rejects garbage", tc.Name)
	require.Len(t, tc.Failure, 1)
	assert.Equal(t, "Expected false to be true.", tc.Failure[0].Message)
	assert.Contains(t, tc.Failure[0].Details, "parser.spec.js:12:4")
}

func TestJUnitPendingSpecsAreSkipped(t *testing.T) {
	doc := buildJUnitDocument([]*types.TestResult{
		pendingResult("calculator divides by zero", "calc.spec.js"),
	})

	require.Len(t, doc.TestSuite, 1)
	require.Len(t, doc.TestSuite[0].TestCase, 1)
	tc := doc.TestSuite[0].TestCase[0]
	require.NotNil(t, tc.Skipped)
	assert.Equal(t, "pending", tc.Skipped.Message)
	assert.Empty(t, tc.Failure)
}

func TestJUnitMultipleExpectationsBecomeMultipleFailures(t *testing.T) {
	result := &types.TestResult{
		FullName: "parser rejects garbage",
		Status:   types.StatusFailed,
		FailedExpectations: []types.Expectation{
			{Message: "Expected 1 to be 2.", Stack: "stack one"},
			{Message: "Expected 3 to be 4.", Stack: "stack two"},
		},
		File: "parser.spec.js",
	}

	doc := buildJUnitDocument([]*types.TestResult{result})

	require.Len(t, doc.TestSuite, 1)
	tc := doc.TestSuite[0].TestCase[0]
	require.Len(t, tc.Failure, 2)
	assert.Equal(t, "Expected 1 to be 2.", tc.Failure[0].Message)
	assert.Equal(t, "Expected 3 to be 4.", tc.Failure[1].Message)
	// One failed spec counts once regardless of expectation count.
	assert.Equal(t, 1, doc.Failures)
}

func TestJUnitEmptyRun(t *testing.T) {
	runDir := t.TempDir()
	sink := NewJUnitSink(runDir)
	require.NoError(t, sink.Complete("run-1"))

	data, err := os.ReadFile(filepath.Join(runDir, JUnitFileName))
	require.NoError(t, err)

	var doc junitTestSuites
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, 0, doc.Tests)
	assert.Empty(t, doc.TestSuite)
}

func TestJUnitResultWithoutFileGroupsUnderUnknown(t *testing.T) {
	doc := buildJUnitDocument([]*types.TestResult{
		{FullName: "orphan spec", Status: types.StatusPassed},
	})

	require.Len(t, doc.TestSuite, 1)
	assert.Equal(t, "unknown", doc.TestSuite[0].Name)
}
