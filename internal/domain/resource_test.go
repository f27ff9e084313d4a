package domain_test

import (
	"testing"

	"aws-console-lab/internal/domain"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestResourceTypeForCategory(t *testing.T) {
	assert.Equal(t, domain.ResourceTypeEC2Instance, domain.ResourceTypeForCategory("ec2"))
	assert.Equal(t, domain.ResourceTypeSecurityGroup, domain.ResourceTypeForCategory("securityGroup"))
	// Categoria desconhecida cai para a própria chave em maiúsculas
	assert.Equal(t, "LAMBDA", domain.ResourceTypeForCategory("lambda"))
}

func TestStateString(t *testing.T) {
	res := &domain.SimulatedResource{
		State: datatypes.JSONMap{"bucketName": "meu-bucket", "size": float64(42)},
	}
	assert.Equal(t, "meu-bucket", res.StateString("bucketName"))
	assert.Equal(t, "", res.StateString("size"))
	assert.Equal(t, "", res.StateString("inexistente"))

	var empty domain.SimulatedResource
	assert.Equal(t, "", empty.StateString("qualquer"))
}

func TestHasCompletedNilProgress(t *testing.T) {
	var p *domain.UserProgress
	assert.False(t, p.HasCompleted("step-1"))

	p = &domain.UserProgress{CompletedSteps: datatypes.NewJSONSlice([]string{"step-1"})}
	assert.True(t, p.HasCompleted("step-1"))
	assert.False(t, p.HasCompleted("step-2"))
}
