package service_test

import (
	"context"
	"testing"
	"time"

	"aws-console-lab/internal/domain"
	"aws-console-lab/internal/seed"
	"aws-console-lab/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestStartLabSeedsInitialState(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, seed.Run(ctx, repo))

	result, err := svc.StartLab(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)
	require.NotNil(t, result.Lab)
	require.NotNil(t, result.Progress)
	assert.Equal(t, "ec2-1-open-console", result.Progress.CurrentStep)

	// O initialState do lab tem 1 VPC, 1 subnet e 1 security group,
	// cada categoria remapeada para o resourceType canónico.
	resources, err := svc.ListResources(ctx, "user-1", "lab-ec2-launch", "")
	require.NoError(t, err)
	require.Len(t, resources, 3)

	byType := map[string]int{}
	for _, res := range resources {
		byType[res.ResourceType]++
	}
	assert.Equal(t, 1, byType[domain.ResourceTypeVPC])
	assert.Equal(t, 1, byType[domain.ResourceTypeSubnet])
	assert.Equal(t, 1, byType[domain.ResourceTypeSecurityGroup])
}

func TestStartLabIsDestructiveReset(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, seed.Run(ctx, repo))

	_, err := svc.StartLab(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)

	// Progride dentro do lab
	_, err = svc.ValidateAction(ctx, service.ActionRequest{
		UserID:  "user-1",
		LabID:   "lab-ec2-launch",
		StepID:  "ec2-1-open-console",
		Action:  "NAVIGATE",
		Payload: map[string]interface{}{"url": "/ec2"},
	})
	require.NoError(t, err)

	// Recomeçar limpa progresso e recursos e volta ao estado inicial
	result, err := svc.StartLab(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)
	assert.Empty(t, result.Progress.CompletedSteps)
	assert.Equal(t, domain.ProgressStatusInProgress, result.Progress.Status)

	resources, err := svc.ListResources(ctx, "user-1", "lab-ec2-launch", "")
	require.NoError(t, err)
	assert.Len(t, resources, 3)
}

func TestStartLabUnknownLab(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StartLab(context.Background(), "user-1", "lab-fantasma")
	assert.ErrorIs(t, err, service.ErrLabNotFound)
}

func seedInstanceLaunchedAt(t *testing.T, repo service.SimulationRepository, userID string, launchedAt time.Time) *domain.SimulatedResource {
	t.Helper()
	res := &domain.SimulatedResource{
		ID:           uuid.New().String(),
		UserID:       userID,
		ResourceType: domain.ResourceTypeEC2Instance,
		State: datatypes.JSONMap{
			"instanceId": "i-0123456789",
			"status":     "running",
			"launchTime": launchedAt.UTC().Format(time.RFC3339),
		},
		Status: domain.ResourceStatusActive,
	}
	require.NoError(t, repo.CreateResource(context.Background(), res))
	return res
}

func TestInstanceWithinBootWindowReadsPending(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedInstanceLaunchedAt(t, repo, "user-1", time.Now().Add(-5*time.Second))

	resources, err := svc.ListResources(ctx, "user-1", "", "")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "pending", resources[0].StateString("status"))

	// O overlay é só de leitura: o registo persistido continua running
	stored, err := repo.ListResources(ctx, domain.ResourceFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "running", stored[0].StateString("status"))
}

func TestInstancePastBootWindowReadsStoredStatus(t *testing.T) {
	svc, repo := newTestService(t)

	seedInstanceLaunchedAt(t, repo, "user-1", time.Now().Add(-20*time.Second))

	resources, err := svc.ListResources(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "running", resources[0].StateString("status"))
}

func TestProgressOverviewSingleLab(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, seed.Run(ctx, repo))

	_, err := svc.StartLab(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)

	overview, err := svc.GetProgressOverview(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)
	require.NotNil(t, overview.Progress)
	assert.Nil(t, overview.AllProgress)
	assert.Len(t, overview.Resources, 3)
}

func TestProgressOverviewAllLabs(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, seed.Run(ctx, repo))

	_, err := svc.StartLab(ctx, "user-1", "lab-ec2-launch")
	require.NoError(t, err)
	_, err = svc.StartLab(ctx, "user-1", "lab-s3-static-site")
	require.NoError(t, err)

	overview, err := svc.GetProgressOverview(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Nil(t, overview.Progress)
	assert.Len(t, overview.AllProgress, 2)
}

func TestListLabsReturnsCatalogue(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, seed.Run(ctx, repo))

	labs, err := svc.ListLabs(ctx)
	require.NoError(t, err)
	require.Len(t, labs, 3)

	lab, err := svc.GetLab(ctx, "lab-ec2-launch")
	require.NoError(t, err)
	require.Len(t, lab.Steps, 7)
	// Steps sempre ordenados pela ordem do lab
	for i, step := range lab.Steps {
		assert.Equal(t, i+1, step.Order)
	}
}
