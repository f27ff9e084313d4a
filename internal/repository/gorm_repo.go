package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"aws-console-lab/internal/domain"
	"aws-console-lab/internal/service"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository abre (ou cria) a base SQLite e aplica as migrações
// automáticas de todos os modelos da simulação.
func NewGormRepository(dbPath string) (service.SimulationRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&domain.Lab{},
		&domain.Step{},
		&domain.UserProgress{},
		&domain.SimulatedResource{},
		&domain.ResourceHistory{},
		&domain.LabSubmission{},
	)
	if err != nil {
		return nil, fmt.Errorf("falha ao migrar o schema: %w", err)
	}

	log.Println("✅ Base de dados SQLite conectada e migrações aplicadas.")
	return &gormRepository{db: db}, nil
}

// --- Catálogo de labs ---

func (r *gormRepository) GetLabByID(ctx context.Context, labID string) (*domain.Lab, error) {
	var lab domain.Lab
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&lab, "id = ?", labID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // lab não encontrado não é erro fatal
		}
		return nil, err
	}
	return &lab, nil
}

func (r *gormRepository) ListLabs(ctx context.Context) ([]*domain.Lab, error) {
	var labs []*domain.Lab
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Order("id ASC").
		Find(&labs).Error
	if err != nil {
		return nil, err
	}
	return labs, nil
}

func (r *gormRepository) GetStep(ctx context.Context, labID, stepID string) (*domain.Step, error) {
	var step domain.Step
	err := r.db.WithContext(ctx).
		First(&step, "lab_id = ? AND id = ?", labID, stepID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &step, nil
}

func (r *gormRepository) GetStepByOrder(ctx context.Context, labID string, order int) (*domain.Step, error) {
	var step domain.Step
	err := r.db.WithContext(ctx).
		First(&step, "lab_id = ? AND step_order = ?", labID, order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &step, nil
}

func (r *gormRepository) ListStepsBefore(ctx context.Context, labID string, order int) ([]*domain.Step, error) {
	var steps []*domain.Step
	err := r.db.WithContext(ctx).
		Where("lab_id = ? AND step_order < ?", labID, order).
		Order("step_order ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// UpsertLab regrava o lab e a sua lista de steps. Só é usado pelo
// seeding no arranque; os labs são read-only depois disso.
func (r *gormRepository) UpsertLab(ctx context.Context, lab *domain.Lab) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Steps").
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(lab).Error
		if err != nil {
			return err
		}
		if err := tx.Where("lab_id = ?", lab.ID).Delete(&domain.Step{}).Error; err != nil {
			return err
		}
		for i := range lab.Steps {
			lab.Steps[i].LabID = lab.ID
		}
		if len(lab.Steps) == 0 {
			return nil
		}
		return tx.Create(&lab.Steps).Error
	})
}

// --- Progresso ---

func (r *gormRepository) GetProgress(ctx context.Context, userID, labID string) (*domain.UserProgress, error) {
	var p domain.UserProgress
	err := r.db.WithContext(ctx).
		First(&p, "user_id = ? AND lab_id = ?", userID, labID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) ListProgressForUser(ctx context.Context, userID string) ([]*domain.UserProgress, error) {
	var ps []*domain.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("lab_id ASC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *gormRepository) EnsureProgress(ctx context.Context, userID, labID, initialStep string) (*domain.UserProgress, error) {
	p, err := r.GetProgress(ctx, userID, labID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = &domain.UserProgress{
		UserID:         userID,
		LabID:          labID,
		CompletedSteps: datatypes.NewJSONSlice([]string{}),
		CurrentStep:    initialStep,
		Status:         domain.ProgressStatusInProgress,
		UpdatedAt:      time.Now(),
	}
	// DoNothing torna a criação idempotente quando dois pedidos
	// correm ao mesmo tempo para o mesmo par (user, lab).
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return r.GetProgress(ctx, userID, labID)
}

// AppendCompletedStep adiciona o step ao conjunto completado apenas se
// ausente. O read-modify-write corre dentro de uma transação para que
// duas chamadas concorrentes não percam atualizações.
func (r *gormRepository) AppendCompletedStep(ctx context.Context, userID, labID, stepID string) (*domain.UserProgress, error) {
	var out *domain.UserProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.UserProgress
		err := tx.First(&p, "user_id = ? AND lab_id = ?", userID, labID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = domain.UserProgress{
				UserID:         userID,
				LabID:          labID,
				CompletedSteps: datatypes.NewJSONSlice([]string{stepID}),
				CurrentStep:    stepID,
				Status:         domain.ProgressStatusInProgress,
				UpdatedAt:      time.Now(),
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			out = &p
			return nil
		}
		if err != nil {
			return err
		}

		for _, id := range p.CompletedSteps {
			if id == stepID {
				out = &p
				return nil // já completado, no-op
			}
		}

		p.CompletedSteps = append(p.CompletedSteps, stepID)
		p.UpdatedAt = time.Now()
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) UpdateProgressPointer(ctx context.Context, userID, labID, currentStep, status string) error {
	return r.db.WithContext(ctx).
		Model(&domain.UserProgress{}).
		Where("user_id = ? AND lab_id = ?", userID, labID).
		Updates(map[string]interface{}{
			"current_step": currentStep,
			"status":       status,
			"updated_at":   time.Now(),
		}).Error
}

func (r *gormRepository) ResetProgress(ctx context.Context, userID, labID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND lab_id = ?", userID, labID).
		Delete(&domain.UserProgress{}).Error
}

// --- Recursos simulados ---

func (r *gormRepository) CreateResource(ctx context.Context, res *domain.SimulatedResource) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *gormRepository) CreateResources(ctx context.Context, res []*domain.SimulatedResource) error {
	if len(res) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&res).Error
}

func (r *gormRepository) scopedResources(ctx context.Context, f domain.ResourceFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.SimulatedResource{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.LabID != "" {
		// Recursos legacy sem labId continuam visíveis cross-lab.
		q = q.Where("(lab_id = ? OR lab_id IS NULL)", f.LabID)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	return q
}

func (r *gormRepository) ListResources(ctx context.Context, f domain.ResourceFilter) ([]*domain.SimulatedResource, error) {
	var res []*domain.SimulatedResource
	err := r.scopedResources(ctx, f).Order("created_at ASC").Find(&res).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *gormRepository) GetResourceByID(ctx context.Context, userID, id string) (*domain.SimulatedResource, error) {
	var res domain.SimulatedResource
	err := r.db.WithContext(ctx).
		First(&res, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// FindResourceByState devolve o primeiro recurso cujo saco de estado
// tem stateKey == value. O match é feito em Go para não depender da
// extensão JSON1 do SQLite.
func (r *gormRepository) FindResourceByState(ctx context.Context, f domain.ResourceFilter, stateKey, value string) (*domain.SimulatedResource, error) {
	candidates, err := r.ListResources(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, res := range candidates {
		if res.StateString(stateKey) == value {
			return res, nil
		}
	}
	return nil, nil
}

func (r *gormRepository) UpdateResourceState(ctx context.Context, id string, state datatypes.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&domain.SimulatedResource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormRepository) DeleteResource(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&domain.SimulatedResource{}, "id = ?", id).Error
}

// DeleteResourcesForLab apaga todos os recursos do par exato
// (userId, labId); labID vazio apaga o âmbito legacy (lab_id NULL).
// Reset destrutivo usado no arranque de um lab, não é um merge.
func (r *gormRepository) DeleteResourcesForLab(ctx context.Context, userID, labID string) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if labID == "" {
		q = q.Where("lab_id IS NULL")
	} else {
		q = q.Where("lab_id = ?", labID)
	}
	return q.Delete(&domain.SimulatedResource{}).Error
}

// --- Histórico ---

func (r *gormRepository) AddResourceHistory(ctx context.Context, h *domain.ResourceHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *gormRepository) ListResourceHistory(ctx context.Context, userID, labID string) ([]*domain.ResourceHistory, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if labID != "" {
		q = q.Where("(lab_id = ? OR lab_id IS NULL)", labID)
	}
	var hs []*domain.ResourceHistory
	if err := q.Order("created_at ASC").Find(&hs).Error; err != nil {
		return nil, err
	}
	return hs, nil
}

// --- Submissões ---

func (r *gormRepository) CreateSubmission(ctx context.Context, sub *domain.LabSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *gormRepository) ListSubmissions(ctx context.Context, userID, labID string) ([]*domain.LabSubmission, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if labID != "" {
		q = q.Where("lab_id = ?", labID)
	}
	var subs []*domain.LabSubmission
	if err := q.Order("submitted_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *gormRepository) GetSubmissionByID(ctx context.Context, id string) (*domain.LabSubmission, error) {
	var sub domain.LabSubmission
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
