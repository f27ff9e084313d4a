package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Enum fechado de tipos de recurso simulado.
const (
	ResourceTypeEC2Instance   = "EC2_INSTANCE"
	ResourceTypeS3Bucket      = "S3_BUCKET"
	ResourceTypeVPC           = "VPC"
	ResourceTypeSubnet        = "SUBNET"
	ResourceTypeSecurityGroup = "SECURITY_GROUP"
	ResourceTypeEBSVolume     = "EBS_VOLUME"
	ResourceTypeIAMUser       = "IAM_USER"
	ResourceTypeIAMRole       = "IAM_ROLE"
	ResourceTypeIAMPolicy     = "IAM_POLICY"
	ResourceTypeIAMGroup      = "IAM_GROUP"
	ResourceTypeSecret        = "SECRETS_MANAGER_SECRET"
	ResourceTypeLogGroup      = "CLOUDWATCH_LOG_GROUP"
)

const (
	ResourceStatusActive = "active"

	HistoryStatusActive   = "active"
	HistoryStatusDeleted  = "deleted"
	HistoryStatusArchived = "archived"
)

// categoryResourceTypes mapeia a chave de categoria do initialState de
// um lab para o resourceType canónico. Tabela fixa e imutável.
var categoryResourceTypes = map[string]string{
	"ec2":           ResourceTypeEC2Instance,
	"s3":            ResourceTypeS3Bucket,
	"vpc":           ResourceTypeVPC,
	"subnet":        ResourceTypeSubnet,
	"securityGroup": ResourceTypeSecurityGroup,
	"ebs":           ResourceTypeEBSVolume,
	"iamUser":       ResourceTypeIAMUser,
	"iamRole":       ResourceTypeIAMRole,
	"iamPolicy":     ResourceTypeIAMPolicy,
	"iamGroup":      ResourceTypeIAMGroup,
	"secret":        ResourceTypeSecret,
	"logGroup":      ResourceTypeLogGroup,
}

// ResourceTypeForCategory devolve o resourceType de uma chave de
// categoria de seed; chaves desconhecidas caem para a própria chave em
// maiúsculas.
func ResourceTypeForCategory(key string) string {
	if rt, ok := categoryResourceTypes[key]; ok {
		return rt
	}
	return strings.ToUpper(key)
}

// SimulatedResource representa um objeto cloud simulado. State é um
// saco de estado cuja forma depende do resourceType (ex.: EC2 tem
// instanceId, status, launchTime). LabID nulo = recurso legacy sem
// âmbito de lab, visível cross-lab.
type SimulatedResource struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"index" json:"userId"`
	LabID        *string           `gorm:"index" json:"labId"`
	ResourceType string            `gorm:"index" json:"resourceType"`
	State        datatypes.JSONMap `json:"state"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// StateString lê uma chave do saco de estado como string.
func (r *SimulatedResource) StateString(key string) string {
	if r.State == nil {
		return ""
	}
	if v, ok := r.State[key].(string); ok {
		return v
	}
	return ""
}

// ResourceHistory guarda os dados de formulário submetidos na criação
// de um recurso, independente da existência atual do recurso.
// ResourceID é uma back-reference anulável usada apenas para display.
type ResourceHistory struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"index" json:"userId"`
	LabID        *string           `json:"labId"`
	ResourceType string            `json:"resourceType"`
	ResourceID   *string           `json:"resourceId"`
	FormData     datatypes.JSONMap `json:"formData"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ResourceFilter restringe pesquisas no store de recursos. UserID vazio
// só é permitido na verificação de unicidade global de nomes de bucket.
// Com LabID preenchido o filtro alarga para lab_id = LabID OR NULL.
type ResourceFilter struct {
	UserID       string
	LabID        string
	ResourceType string
}
