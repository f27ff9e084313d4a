package service

import (
	"context"
	"fmt"
	"log"

	"aws-console-lab/internal/domain"
)

// Ações simbólicas com tratamento especial no validador.
const (
	ActionClickFinalLaunch   = "CLICK_FINAL_LAUNCH"
	ActionNavigate           = "NAVIGATE"
	ActionSelectOption       = "SELECT_OPTION"
	ActionSelectAMI          = "SELECT_AMI"
	ActionSelectInstanceType = "SELECT_INSTANCE_TYPE"
)

// ActionRequest é uma ação de consola submetida pelo cliente.
type ActionRequest struct {
	UserID  string                 `json:"userId"`
	LabID   string                 `json:"labId"`
	StepID  string                 `json:"stepId"`
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

// ActionResult é a resposta de negócio de uma ação. Rejeições de
// validação vêm aqui com Success=false, nunca como erro de transporte.
type ActionResult struct {
	Success  bool                      `json:"success"`
	Message  string                    `json:"message"`
	Resource *domain.SimulatedResource `json:"resource,omitempty"`
}

func failResult(format string, args ...interface{}) *ActionResult {
	return &ActionResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

// ValidateAction corre a máquina de estados de validação de steps:
// sequence gate, identidade da ação, despacho de efeitos e registo de
// progresso.
func (s *SimulationService) ValidateAction(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	step, err := s.repo.GetStep(ctx, req.LabID, req.StepID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar step %s: %w", req.StepID, err)
	}

	if step == nil {
		// Fail-open deliberado: steps legacy/não documentados nunca
		// bloqueiam. Segue direto para o despacho de efeitos.
		log.Printf("AVISO [Validator]: Step %s do lab %s sem regra registada, ação aceite.", req.StepID, req.LabID)
	} else {
		gate, err := s.checkSequence(ctx, req, step)
		if err != nil {
			return nil, err
		}
		if gate != nil {
			return gate, nil
		}
		if mismatch := checkActionIdentity(step, req); mismatch != nil {
			return mismatch, nil
		}
	}

	result, err := s.dispatchAction(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		// Sem efeitos, sem progresso: a falha de mutação anula a ação.
		return result, nil
	}

	if req.StepID != "" {
		if err := s.markStepCompleted(ctx, req.UserID, req.LabID, req.StepID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// checkSequence aplica o sequence gate. Devolve um resultado de falha
// quando o step não pode ainda ser submetido, ou nil quando pode.
func (s *SimulationService) checkSequence(ctx context.Context, req ActionRequest, step *domain.Step) (*ActionResult, error) {
	if step.Order <= 1 {
		return nil, nil
	}

	progress, err := s.repo.GetProgress(ctx, req.UserID, req.LabID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar progresso: %w", err)
	}

	if req.Action == ActionClickFinalLaunch {
		return s.backfillBeforeFinalLaunch(ctx, req, step, progress)
	}

	prev, err := s.repo.GetStepByOrder(ctx, req.LabID, step.Order-1)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar step anterior: %w", err)
	}
	if prev != nil && !progress.HasCompleted(prev.ID) {
		return failResult("Please complete step %d: %s first.", prev.Order, prev.Title), nil
	}
	return nil, nil
}

// backfillBeforeFinalLaunch trata o caso especial do lançamento final:
// o payload completo do formulário serve de prova retroativa dos steps
// intermédios que o backend nunca viu. Cada step anterior ainda em
// falta é auto-completado quando o payload demonstra o seu campo, ou
// quando o step é de interação genérica (clique/navegação) e houve
// qualquer payload. Todas as provas são persistidas antes de decidir:
// se algum step ficar por provar, a validação falha apontando o de
// menor ordem, mas as auto-conclusões já feitas não se perdem.
func (s *SimulationService) backfillBeforeFinalLaunch(ctx context.Context, req ActionRequest, step *domain.Step, progress *domain.UserProgress) (*ActionResult, error) {
	prior, err := s.repo.ListStepsBefore(ctx, req.LabID, step.Order)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar steps anteriores: %w", err)
	}

	var unproven *domain.Step
	for _, p := range prior {
		if progress.HasCompleted(p.ID) {
			continue
		}

		rule := p.Validation.Data()
		proven := rule.Field != "" && isTruthy(req.Payload[rule.Field])
		generic := (rule.Type == domain.ValidationClickButton ||
			rule.Type == domain.ValidationURLContains ||
			p.ExpectedAction == ActionNavigate) && len(req.Payload) > 0

		if !proven && !generic {
			if unproven == nil {
				unproven = p
			}
			continue
		}

		progress, err = s.repo.AppendCompletedStep(ctx, req.UserID, req.LabID, p.ID)
		if err != nil {
			return nil, fmt.Errorf("falha ao auto-completar step %s: %w", p.ID, err)
		}
		log.Printf("INFO [Validator]: Step %s auto-completado pelo payload do lançamento final.", p.ID)
	}

	if unproven != nil {
		return failResult("Please complete step %d: %s first.", unproven.Order, unproven.Title), nil
	}
	return nil, nil
}

// checkActionIdentity compara a ação submetida com a esperada pelo
// step, com o remapeamento simbólico de SELECT_OPTION.
func checkActionIdentity(step *domain.Step, req ActionRequest) *ActionResult {
	if step.ExpectedAction == domain.ActionGeneric {
		return nil
	}

	submitted := req.Action
	if submitted == ActionSelectOption {
		switch field, _ := req.Payload["field"].(string); field {
		case "ami":
			submitted = ActionSelectAMI
		case "instanceType":
			submitted = ActionSelectInstanceType
		}
	}

	if submitted != step.ExpectedAction {
		return failResult("Incorrect action. Expected %s, got %s", step.ExpectedAction, req.Action)
	}
	return nil
}

// markStepCompleted regista a conclusão (idempotente), avança o
// ponteiro e fecha o lab quando todos os steps estão completados.
func (s *SimulationService) markStepCompleted(ctx context.Context, userID, labID, stepID string) error {
	progress, err := s.repo.AppendCompletedStep(ctx, userID, labID, stepID)
	if err != nil {
		return fmt.Errorf("falha ao registar conclusão do step %s: %w", stepID, err)
	}

	lab, err := s.repo.GetLabByID(ctx, labID)
	if err != nil {
		return fmt.Errorf("falha ao buscar lab %s: %w", labID, err)
	}

	status := domain.ProgressStatusInProgress
	current := stepID
	if lab != nil && len(lab.Steps) > 0 {
		done := 0
		var next *domain.Step
		for i := range lab.Steps {
			if progress.HasCompleted(lab.Steps[i].ID) {
				done++
			} else if next == nil {
				next = &lab.Steps[i]
			}
		}
		if done >= len(lab.Steps) {
			status = domain.ProgressStatusCompleted
		} else if next != nil {
			current = next.ID
		}
	}

	if err := s.repo.UpdateProgressPointer(ctx, userID, labID, current, status); err != nil {
		return fmt.Errorf("falha ao atualizar ponteiro de progresso: %w", err)
	}
	return nil
}

// isTruthy espelha a semântica de truthiness do payload: nil, string
// vazia, false e zero contam como ausentes.
func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
