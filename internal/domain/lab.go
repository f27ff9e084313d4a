package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Lab é um cenário guiado composto por Steps ordenados.
// Criado pelo seeding; read-only em runtime.
type Lab struct {
	ID           string            `gorm:"primaryKey" json:"labId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Difficulty   string            `json:"difficulty"`
	Service      string            `json:"service"`
	InitialState datatypes.JSONMap `json:"initialState"`
	Steps        []Step            `gorm:"foreignKey:LabID;references:ID" json:"steps"`
	CreatedAt    time.Time         `json:"createdAt"`
}
