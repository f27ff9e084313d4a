package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProgressStatusInProgress = "in-progress"
	ProgressStatusCompleted  = "completed"
)

// UserProgress regista os steps completados de um utilizador num lab.
// No máximo um registo por par (userId, labId); CompletedSteps é um
// conjunto append-only ordenado por inserção, sem duplicados.
type UserProgress struct {
	UserID         string                      `gorm:"primaryKey" json:"userId"`
	LabID          string                      `gorm:"primaryKey" json:"labId"`
	CompletedSteps datatypes.JSONSlice[string] `json:"completedSteps"`
	CurrentStep    string                      `json:"currentStep"`
	Status         string                      `json:"status"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// HasCompleted aceita receiver nil: progresso inexistente conta como
// nenhum step completado.
func (p *UserProgress) HasCompleted(stepID string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.CompletedSteps {
		if id == stepID {
			return true
		}
	}
	return false
}
