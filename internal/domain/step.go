package domain

import "gorm.io/datatypes"

// ActionGeneric é o sentinel de ExpectedAction: nenhuma verificação de
// tipo de ação, apenas registo de progresso.
const ActionGeneric = "GENERIC"

// Tipos de regra de validação conhecidos.
const (
	ValidationClickButton    = "CLICK_BUTTON"
	ValidationURLContains    = "URL_CONTAINS"
	ValidationFieldPresent   = "FIELD_PRESENT"
	ValidationResourceExists = "RESOURCE_EXISTS"
)

// ValidationRule documenta a validação pretendida de um Step.
// O validador só consulta Type e Field; Value fica registado no schema
// mas não é verificado (política de leniência documentada).
type ValidationRule struct {
	Type         string `json:"type,omitempty"`
	Field        string `json:"field,omitempty"`
	Value        string `json:"value,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
}

// Step é uma ação obrigatória do learner dentro de um Lab.
// Order (1-based) é o único sinal de sequenciação. Imutável após o seeding.
type Step struct {
	ID             string                             `gorm:"primaryKey" json:"stepId"`
	LabID          string                             `gorm:"index" json:"labId"`
	Title          string                             `json:"title"`
	Description    string                             `json:"description"`
	Order          int                                `gorm:"column:step_order" json:"order"`
	ExpectedAction string                             `json:"expectedAction"`
	Validation     datatypes.JSONType[ValidationRule] `json:"validationLogic"`
}
