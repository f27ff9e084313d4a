package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"aws-console-lab/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxRecommendedVideos = 2

// SubmitLab calcula o score, pede o enriquecimento best-effort aos
// colaboradores externos e persiste sempre uma submissão — mesmo que o
// enriquecimento falhe por completo.
func (s *SimulationService) SubmitLab(ctx context.Context, userID, labID string) (*domain.LabSubmission, error) {
	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar lab %s: %w", labID, err)
	}
	if lab == nil {
		return nil, ErrLabNotFound
	}

	progress, err := s.repo.GetProgress(ctx, userID, labID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar progresso: %w", err)
	}

	completed := 0
	if progress != nil {
		completed = len(progress.CompletedSteps)
	}
	total := len(lab.Steps)

	// Lab sem steps dá score 0, nunca divisão por zero.
	score := 0
	if total > 0 {
		score = int(math.Round(100 * float64(completed) / float64(total)))
	}

	feedback := s.buildFeedback(ctx, lab, progress, score, completed, total)
	videos := s.buildVideoRecommendations(ctx, feedback.Improvements)

	submission := &domain.LabSubmission{
		ID:          uuid.New().String(),
		UserID:      userID,
		LabID:       labID,
		Score:       score,
		Feedback:    datatypes.NewJSONType(feedback),
		Videos:      datatypes.NewJSONSlice(videos),
		SubmittedAt: time.Now(),
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("falha ao persistir submissão: %w", err)
	}
	return submission, nil
}

// buildFeedback tenta o colaborador de IA e cai para a tabela fixa de
// regras quando ele não está configurado, falha ou devolve vazio.
func (s *SimulationService) buildFeedback(ctx context.Context, lab *domain.Lab, progress *domain.UserProgress, score, completed, total int) domain.Feedback {
	if s.feedback != nil {
		fb, err := s.feedback.GenerateFeedback(ctx, lab, progress)
		if err != nil {
			log.Printf("AVISO [Scorer]: Colaborador de feedback falhou, a usar fallback: %v", err)
		}
		if fb != nil && (len(fb.Strengths) > 0 || len(fb.Improvements) > 0) {
			return *fb
		}
	}
	return fallbackFeedback(lab, score, completed, total)
}

func fallbackFeedback(lab *domain.Lab, score, completed, total int) domain.Feedback {
	var fb domain.Feedback
	switch {
	case score == 100:
		fb = domain.Feedback{
			Strengths: []string{
				"You completed every step of the lab.",
				"Your actions followed the expected AWS console workflow.",
			},
			Improvements: []string{
				"Repeat the lab without the guided hints to consolidate what you learned.",
			},
		}
	case score > 50:
		fb = domain.Feedback{
			Strengths: []string{
				fmt.Sprintf("You completed %d of %d lab steps.", completed, total),
			},
			Improvements: []string{
				"Review the remaining steps and finish the lab end to end.",
			},
		}
	default:
		fb = domain.Feedback{
			Strengths: []string{
				"You started the lab — every attempt builds familiarity with the console.",
			},
			Improvements: []string{
				"Work through the lab steps in order and submit again.",
			},
		}
	}

	if lab.ID == "lab-ec2-launch" && score < 100 {
		fb.Improvements = append(fb.Improvements,
			"Review how to choose an AMI and an instance type before launching an EC2 instance.",
			"Double-check the security group attached to the instance.")
	}
	return fb
}

// buildVideoRecommendations pede até 2 vídeos (1 por improvement, só
// os 2 primeiros) e sintetiza exatamente um vídeo de fallback quando o
// colaborador não devolve nada.
func (s *SimulationService) buildVideoRecommendations(ctx context.Context, improvements []string) []domain.Video {
	if len(improvements) == 0 {
		return []domain.Video{}
	}

	topics := improvements
	if len(topics) > maxRecommendedVideos {
		topics = topics[:maxRecommendedVideos]
	}

	var found []domain.Video
	if s.videos != nil {
		videos, err := s.videos.FindVideos(ctx, topics, 1)
		if err != nil {
			log.Printf("AVISO [Scorer]: Colaborador de vídeos falhou, a usar fallback: %v", err)
		}
		found = videos
	}

	deduped := make([]domain.Video, 0, maxRecommendedVideos)
	seen := make(map[string]bool)
	for _, v := range found {
		if seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		deduped = append(deduped, v)
		if len(deduped) == maxRecommendedVideos {
			break
		}
	}
	if len(deduped) > 0 {
		return deduped
	}

	return []domain.Video{fallbackVideo(improvements[0])}
}

// fallbackVideo sintetiza uma recomendação de pesquisa a partir do
// primeiro improvement, por sniffing de palavras-chave.
func fallbackVideo(improvement string) domain.Video {
	term := "AWS"
	lower := strings.ToLower(improvement)
	switch {
	case strings.Contains(lower, "ec2"):
		term = "EC2"
	case strings.Contains(lower, "s3"):
		term = "S3"
	case strings.Contains(lower, "iam"):
		term = "IAM"
	}

	query := term + " tutorial for beginners"
	return domain.Video{
		Title:        query,
		ChannelTitle: "YouTube search",
		URL:          "https://www.youtube.com/results?search_query=" + url.QueryEscape(query),
		Description:  "Suggested search while video recommendations are unavailable.",
		RelatedTo:    improvement,
	}
}
