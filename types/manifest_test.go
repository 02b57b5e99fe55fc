package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteConfig_ResolveInherited(t *testing.T) {
	tests := []struct {
		name      string
		suites    map[string]SuiteConfig
		suiteID   string
		wantSpecs []SpecConfig
		wantErr   string
	}{
		{
			name: "single level inheritance",
			suites: map[string]SuiteConfig{
				"base": {
					ID: "base",
					Specs: []SpecConfig{
						{File: "base.spec.js"},
					},
				},
				"smoke": {
					ID:       "smoke",
					Inherits: []string{"base"},
					Specs: []SpecConfig{
						{File: "smoke.spec.js"},
					},
				},
			},
			suiteID: "smoke",
			wantSpecs: []SpecConfig{
				{File: "smoke.spec.js"},
				{File: "base.spec.js"},
			},
		},
		{
			name: "multi-level inheritance",
			suites: map[string]SuiteConfig{
				"core": {
					ID: "core",
					Specs: []SpecConfig{
						{File: "core.spec.js"},
					},
				},
				"base": {
					ID:       "base",
					Inherits: []string{"core"},
					Specs: []SpecConfig{
						{File: "base.spec.js"},
					},
				},
				"full": {
					ID:       "full",
					Inherits: []string{"base"},
					Specs: []SpecConfig{
						{File: "full.spec.js"},
					},
				},
			},
			suiteID: "full",
			wantSpecs: []SpecConfig{
				{File: "full.spec.js"},
				{File: "base.spec.js"},
				{File: "core.spec.js"},
			},
		},
		{
			name: "child entry wins on conflict",
			suites: map[string]SuiteConfig{
				"base": {
					ID: "base",
					Specs: []SpecConfig{
						{File: "shared.spec.js", Timeout: durationPtr(time.Minute)},
					},
				},
				"smoke": {
					ID:       "smoke",
					Inherits: []string{"base"},
					Specs: []SpecConfig{
						{File: "shared.spec.js", Timeout: durationPtr(10 * time.Second)},
					},
				},
			},
			suiteID: "smoke",
			wantSpecs: []SpecConfig{
				{File: "shared.spec.js", Timeout: durationPtr(10 * time.Second)},
			},
		},
		{
			name: "circular inheritance",
			suites: map[string]SuiteConfig{
				"a": {ID: "a", Inherits: []string{"b"}},
				"b": {ID: "b", Inherits: []string{"a"}},
			},
			suiteID: "a",
			wantErr: "circular inheritance",
		},
		{
			name: "unknown parent",
			suites: map[string]SuiteConfig{
				"child": {ID: "child", Inherits: []string{"missing"}},
			},
			suiteID: "child",
			wantErr: `inherits from unknown suite "missing"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := tt.suites[tt.suiteID]
			err := suite.ResolveInherited(tt.suites)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSpecs, suite.Specs)
		})
	}
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
