package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aws-console-lab/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrLabNotFound        = errors.New("lab não encontrado")
	ErrSubmissionNotFound = errors.New("submissão não encontrada")
)

// Janela de boot simulado: instâncias EC2 lançadas há menos de 15s são
// devolvidas como "pending" sem tocar no registo persistido.
const pendingWindow = 15 * time.Second

type SimulationService struct {
	repo     SimulationRepository
	feedback FeedbackGenerator
	videos   VideoFinder
}

func NewSimulationService(repo SimulationRepository, feedback FeedbackGenerator, videos VideoFinder) *SimulationService {
	return &SimulationService{
		repo:     repo,
		feedback: feedback,
		videos:   videos,
	}
}

// StartLabResult resume o arranque de um lab.
type StartLabResult struct {
	Lab       *domain.Lab                 `json:"lab"`
	Resources []*domain.SimulatedResource `json:"resources"`
	Progress  *domain.UserProgress        `json:"progress"`
}

// StartLab faz o reset destrutivo dos recursos e do progresso do par
// (user, lab) e volta a semear o initialState do lab.
func (s *SimulationService) StartLab(ctx context.Context, userID, labID string) (*StartLabResult, error) {
	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar lab %s: %w", labID, err)
	}
	if lab == nil {
		return nil, ErrLabNotFound
	}

	if err := s.repo.DeleteResourcesForLab(ctx, userID, labID); err != nil {
		return nil, fmt.Errorf("falha ao limpar recursos do lab %s: %w", labID, err)
	}
	if err := s.repo.ResetProgress(ctx, userID, labID); err != nil {
		return nil, fmt.Errorf("falha ao limpar progresso do lab %s: %w", labID, err)
	}

	seeded := buildSeedResources(userID, labID, lab.InitialState)
	if err := s.repo.CreateResources(ctx, seeded); err != nil {
		return nil, fmt.Errorf("falha ao semear recursos do lab %s: %w", labID, err)
	}

	initialStep := ""
	if len(lab.Steps) > 0 {
		initialStep = lab.Steps[0].ID
	}
	progress, err := s.repo.EnsureProgress(ctx, userID, labID, initialStep)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar progresso do lab %s: %w", labID, err)
	}

	return &StartLabResult{Lab: lab, Resources: seeded, Progress: progress}, nil
}

// buildSeedResources expande o initialState de um lab em registos de
// recurso, remapeando cada chave de categoria para o resourceType
// canónico.
func buildSeedResources(userID, labID string, initialState datatypes.JSONMap) []*domain.SimulatedResource {
	var out []*domain.SimulatedResource
	for category, raw := range initialState {
		entries, ok := raw.([]interface{})
		if !ok {
			continue
		}
		resourceType := domain.ResourceTypeForCategory(category)
		for _, entry := range entries {
			stateMap, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			lid := labID
			out = append(out, &domain.SimulatedResource{
				ID:           uuid.New().String(),
				UserID:       userID,
				LabID:        &lid,
				ResourceType: resourceType,
				State:        datatypes.JSONMap(stateMap),
				Status:       domain.ResourceStatusActive,
			})
		}
	}
	return out
}

// ListResources lista recursos com o overlay de estado dinâmico de
// leitura aplicado (boot latency das instâncias EC2).
func (s *SimulationService) ListResources(ctx context.Context, userID, labID, resourceType string) ([]*domain.SimulatedResource, error) {
	resources, err := s.repo.ListResources(ctx, domain.ResourceFilter{
		UserID:       userID,
		LabID:        labID,
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao listar recursos: %w", err)
	}

	out := make([]*domain.SimulatedResource, len(resources))
	for i, res := range resources {
		out[i] = applyPendingOverlay(res, time.Now())
	}
	return out, nil
}

// applyPendingOverlay devolve uma cópia do recurso com o status
// forçado a "pending" quando a instância EC2 ainda está dentro da
// janela de boot. O registo original nunca é alterado por uma leitura.
func applyPendingOverlay(res *domain.SimulatedResource, now time.Time) *domain.SimulatedResource {
	if res.ResourceType != domain.ResourceTypeEC2Instance {
		return res
	}
	launchedAt, err := time.Parse(time.RFC3339, res.StateString("launchTime"))
	if err != nil || now.Sub(launchedAt) >= pendingWindow {
		return res
	}

	overlaid := *res
	overlaid.State = make(datatypes.JSONMap, len(res.State))
	for k, v := range res.State {
		overlaid.State[k] = v
	}
	overlaid.State["status"] = "pending"
	return &overlaid
}

// ProgressOverview agrega progresso, recursos, histórico e submissões
// de um par (user, lab).
type ProgressOverview struct {
	Progress    *domain.UserProgress        `json:"progress"`
	AllProgress []*domain.UserProgress      `json:"allProgress,omitempty"`
	Resources   []*domain.SimulatedResource `json:"resources"`
	History     []*domain.ResourceHistory   `json:"history"`
	Submissions []*domain.LabSubmission     `json:"submissions"`
}

// GetProgressOverview devolve a vista agregada; com labID vazio devolve
// o progresso de todos os labs do utilizador.
func (s *SimulationService) GetProgressOverview(ctx context.Context, userID, labID string) (*ProgressOverview, error) {
	overview := &ProgressOverview{}

	if labID != "" {
		progress, err := s.repo.GetProgress(ctx, userID, labID)
		if err != nil {
			return nil, fmt.Errorf("falha ao buscar progresso: %w", err)
		}
		overview.Progress = progress
	} else {
		all, err := s.repo.ListProgressForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("falha ao buscar progresso: %w", err)
		}
		overview.AllProgress = all
	}

	resources, err := s.ListResources(ctx, userID, labID, "")
	if err != nil {
		return nil, err
	}
	overview.Resources = resources

	history, err := s.repo.ListResourceHistory(ctx, userID, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar histórico: %w", err)
	}
	overview.History = history

	submissions, err := s.repo.ListSubmissions(ctx, userID, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar submissões: %w", err)
	}
	overview.Submissions = submissions

	return overview, nil
}

// GetProgress devolve só o registo de progresso (pode ser nil).
func (s *SimulationService) GetProgress(ctx context.Context, userID, labID string) (*domain.UserProgress, error) {
	return s.repo.GetProgress(ctx, userID, labID)
}

func (s *SimulationService) ListLabs(ctx context.Context) ([]*domain.Lab, error) {
	labs, err := s.repo.ListLabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar labs: %w", err)
	}
	return labs, nil
}

func (s *SimulationService) GetLab(ctx context.Context, labID string) (*domain.Lab, error) {
	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar lab %s: %w", labID, err)
	}
	if lab == nil {
		return nil, ErrLabNotFound
	}
	return lab, nil
}

func (s *SimulationService) ListSubmissions(ctx context.Context, userID, labID string) ([]*domain.LabSubmission, error) {
	subs, err := s.repo.ListSubmissions(ctx, userID, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar submissões: %w", err)
	}
	return subs, nil
}

func (s *SimulationService) GetSubmission(ctx context.Context, id string) (*domain.LabSubmission, error) {
	sub, err := s.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar submissão %s: %w", id, err)
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}
