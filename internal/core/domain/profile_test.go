package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProfile_Normalized_TrimsAndDefaults tests boundary normalization.
func TestProfile_Normalized_TrimsAndDefaults(t *testing.T) {
	p := Profile{
		Name:         "  work  ",
		GoogleAPIKey: " key ",
		Project:      "\tproj-1\n",
		ExtraVars:    map[string]string{" X ": "1", "": "dropped"},
	}.Normalized()

	assert.Equal(t, "work", p.Name)
	assert.Equal(t, "key", p.GoogleAPIKey)
	assert.Equal(t, "proj-1", p.Project)
	assert.Equal(t, map[string]string{"X": "1"}, p.ExtraVars)

	empty := Profile{}.Normalized()
	assert.Equal(t, "default", empty.Name)
}

// TestProfile_Validate_RejectsEmptyProfiles tests the store-boundary check.
func TestProfile_Validate_RejectsEmptyProfiles(t *testing.T) {
	tests := []struct {
		name        string
		profile     Profile
		expectError bool
	}{
		{
			name:        "NoNameNoContent_Fails",
			profile:     Profile{},
			expectError: true,
		},
		{
			name:        "NameOnly_Fails",
			profile:     Profile{Name: "empty"},
			expectError: true,
		},
		{
			name:    "APIKeyOnly_Succeeds",
			profile: Profile{Name: "k", GeminiAPIKey: "g"},
		},
		{
			name:    "ProjectOnly_Succeeds",
			profile: Profile{Name: "p", Project: "proj-1"},
		},
		{
			name:    "ExtraVarsOnly_Succeeds",
			profile: Profile{Name: "v", ExtraVars: map[string]string{"A": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestProfile_Identity_BothFieldsOrNeither tests the atomic pair rule.
func TestProfile_Identity_BothFieldsOrNeither(t *testing.T) {
	p := Profile{Name: "x", Project: "proj-1"}
	_, ok := p.Identity()
	assert.False(t, ok, "id without number is not a complete identity")

	p.SetIdentity(ProjectIdentity{ID: "proj-1", Number: "42"})
	id, ok := p.Identity()
	require.True(t, ok)
	assert.Equal(t, "proj-1", id.ID)
	assert.Equal(t, "42", id.Number)
}

// TestProfile_EnvVars_ExpandsProjectAliases tests the full variable set.
func TestProfile_EnvVars_ExpandsProjectAliases(t *testing.T) {
	p := Profile{
		Name:          "work",
		GoogleAPIKey:  "gkey",
		GeminiAPIKey:  "mkey",
		Project:       "proj-1",
		ProjectNumber: "42",
		ExtraVars:     map[string]string{"DEPLOY_ENV": "staging"},
	}

	vars := p.EnvVars()

	assert.Equal(t, "gkey", vars["GOOGLE_API_KEY"])
	assert.Equal(t, "mkey", vars["GEMINI_API_KEY"])
	for _, alias := range []string{"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_PROJECT_ID", "GCLOUD_PROJECT", "PROJECT_ID"} {
		assert.Equal(t, "proj-1", vars[alias], alias)
	}
	assert.Equal(t, "42", vars["PROJECT_NUMBER"])
	assert.Equal(t, "staging", vars["DEPLOY_ENV"])
}

// TestWellKnownKeys_CoverEveryEngineWrittenVar keeps the stale-key
// clearing list in sync with EnvVars.
func TestWellKnownKeys_CoverEveryEngineWrittenVar(t *testing.T) {
	vars := Profile{Name: "x"}.EnvVars()
	known := make(map[string]struct{})
	for _, k := range WellKnownKeys() {
		known[k] = struct{}{}
	}
	for k := range vars {
		_, ok := known[k]
		assert.True(t, ok, "key %s missing from WellKnownKeys", k)
	}
}
