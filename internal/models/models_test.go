// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePredicates(t *testing.T) {
	recruiting := []Role{RoleAdmin, RoleRH, RoleRecruteur}
	for _, r := range recruiting {
		assert.True(t, r.IsRecruiting(), "%s should be recruiting", r)
		assert.True(t, r.IsStaff())
	}

	nonRecruiting := []Role{RoleEmploye, RoleStagiaire, RoleEntreprise, RoleCandidat, RoleConsultant}
	for _, r := range nonRecruiting {
		assert.False(t, r.IsRecruiting(), "%s should not be recruiting", r)
	}

	assert.True(t, RoleCandidat.IsCandidate())
	assert.False(t, RoleCandidat.IsStaff())
	assert.False(t, RoleEntreprise.IsStaff())
}

func TestEvaluationAverageScore(t *testing.T) {
	e := &Evaluation{
		TechnicalScore:     4,
		CommunicationScore: 5,
		MotivationScore:    3,
		CultureFitScore:    4,
	}
	assert.InDelta(t, 4.0, e.AverageScore(), 0.001)

	e = &Evaluation{TechnicalScore: 1, CommunicationScore: 2, MotivationScore: 2, CultureFitScore: 2}
	assert.InDelta(t, 1.75, e.AverageScore(), 0.001)
}
