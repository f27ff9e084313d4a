package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Feedback é o par strengths/improvements devolvido ao learner.
type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Video é uma recomendação de vídeo associada a um improvement.
type Video struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	Duration     string `json:"duration"`
	RelatedTo    string `json:"relatedTo"`
}

// LabSubmission é um registo por evento de scoring. Não é único por
// (userId, labId): o histórico é preservado e o mais recente é
// determinado por SubmittedAt. Imutável depois de criado.
type LabSubmission struct {
	ID          string                       `gorm:"primaryKey" json:"id"`
	UserID      string                       `gorm:"index" json:"userId"`
	LabID       string                       `gorm:"index" json:"labId"`
	Score       int                          `json:"score"`
	Feedback    datatypes.JSONType[Feedback] `json:"feedback"`
	Videos      datatypes.JSONSlice[Video]   `json:"recommendedVideos"`
	SubmittedAt time.Time                    `json:"submittedAt"`
}
