package service

import (
	"context"

	"aws-console-lab/internal/domain"

	"gorm.io/datatypes"
)

// SimulationRepository é o contrato de persistência da simulação.
type SimulationRepository interface {
	// Catálogo de labs (read-only em runtime; Upsert é só para seeding)
	GetLabByID(ctx context.Context, labID string) (*domain.Lab, error)
	ListLabs(ctx context.Context) ([]*domain.Lab, error)
	GetStep(ctx context.Context, labID, stepID string) (*domain.Step, error)
	GetStepByOrder(ctx context.Context, labID string, order int) (*domain.Step, error)
	ListStepsBefore(ctx context.Context, labID string, order int) ([]*domain.Step, error)
	UpsertLab(ctx context.Context, lab *domain.Lab) error

	// Progresso
	GetProgress(ctx context.Context, userID, labID string) (*domain.UserProgress, error)
	ListProgressForUser(ctx context.Context, userID string) ([]*domain.UserProgress, error)
	EnsureProgress(ctx context.Context, userID, labID, initialStep string) (*domain.UserProgress, error)
	AppendCompletedStep(ctx context.Context, userID, labID, stepID string) (*domain.UserProgress, error)
	UpdateProgressPointer(ctx context.Context, userID, labID, currentStep, status string) error
	ResetProgress(ctx context.Context, userID, labID string) error

	// Recursos simulados
	CreateResource(ctx context.Context, res *domain.SimulatedResource) error
	CreateResources(ctx context.Context, res []*domain.SimulatedResource) error
	ListResources(ctx context.Context, f domain.ResourceFilter) ([]*domain.SimulatedResource, error)
	GetResourceByID(ctx context.Context, userID, id string) (*domain.SimulatedResource, error)
	FindResourceByState(ctx context.Context, f domain.ResourceFilter, stateKey, value string) (*domain.SimulatedResource, error)
	UpdateResourceState(ctx context.Context, id string, state datatypes.JSONMap) error
	DeleteResource(ctx context.Context, id string) error
	DeleteResourcesForLab(ctx context.Context, userID, labID string) error

	// Histórico (escrita best-effort, decidida pelo chamador)
	AddResourceHistory(ctx context.Context, h *domain.ResourceHistory) error
	ListResourceHistory(ctx context.Context, userID, labID string) ([]*domain.ResourceHistory, error)

	// Submissões
	CreateSubmission(ctx context.Context, sub *domain.LabSubmission) error
	ListSubmissions(ctx context.Context, userID, labID string) ([]*domain.LabSubmission, error)
	GetSubmissionByID(ctx context.Context, id string) (*domain.LabSubmission, error)

	Ping(ctx context.Context) error
}

// FeedbackGenerator é o colaborador externo de feedback por IA.
// Pode devolver (nil, nil) quando não está configurado; o scorer tem
// de funcionar na mesma.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, lab *domain.Lab, progress *domain.UserProgress) (*domain.Feedback, error)
}

// VideoFinder é o colaborador externo de recomendação de vídeos.
// Resultados vazios são sempre tolerados.
type VideoFinder interface {
	FindVideos(ctx context.Context, improvements []string, perTopic int) ([]domain.Video, error)
}
